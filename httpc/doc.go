// Package httpc is an HTTPS client for HTTP/1.x built on the tlsio
// record layer.
//
// A Client is bound to one host and one TLS connection. Requests from
// any number of goroutines are serialized by a connection actor and
// answered strictly in submission order:
//
//	client, err := httpc.Connect(ctx, "example.com", "hfetch/1.0", nil)
//	if err != nil {
//		// ...
//	}
//	defer client.Shutdown()
//
//	resp, err := client.Do(ctx, httpc.NewRequest(httpc.GET, "/"))
//
// Responses are parsed incrementally by a Decoder that accepts bytes in
// arbitrary fragmentation, so the client never needs the transport to
// align deliveries with protocol boundaries.
package httpc
