// Package tlsio couples a TLS protocol engine to a byte-stream transport
// and presents the pair as a plain stream of plaintext.
//
// The engine is specified only at its interface: a record-layer state
// machine that reports whether it wants ciphertext from the peer, has
// ciphertext pending for the peer, or is still handshaking, and that
// moves plaintext through an internal reader/writer. StdEngine backs
// that interface with crypto/tls for production use; tests may supply
// their own.
//
// A Stream is not usable until its handshake has been driven to
// completion through a Connecting, a one-shot operation:
//
//	eng := tlsio.NewStdEngine(&tls.Config{ServerName: "example.com"})
//	stream, err := tlsio.Connect(eng, conn).Await(ctx)
//	if err != nil { ... }
//	stream.Write(req)
//	stream.Flush()
//	stream.Read(buf)
package tlsio
