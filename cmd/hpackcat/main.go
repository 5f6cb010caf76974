// Command hpackcat round-trips an HTTP/1.1-style request's headers through
// the hpack codec and prints what came out the other side. It exists to
// exercise the codec against a real header source instead of hand-built
// test fixtures: fasthttp parses the request line and headers, hpack.Encoder
// compresses them, hpack.Decoder decompresses them, and the two header
// lists are compared.
package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/valyala/fasthttp"

	"github.com/yourusername/hpack/pkg/hpack"
	"github.com/yourusername/hpack/pkg/hpack/hpackutil"
)

var bufferPool = hpackutil.NewPool()

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "hpackcat:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var src *os.File
	switch len(args) {
	case 0:
		src = os.Stdin
	case 1:
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		src = f
	default:
		return fmt.Errorf("usage: hpackcat [request-file]")
	}

	var req fasthttp.Request
	if err := req.Read(bufio.NewReader(src)); err != nil {
		return fmt.Errorf("parse request: %w", err)
	}

	fields := collectHeaderFields(&req)

	enc, err := hpack.NewEncoder(hpack.DefaultEncoderConfig())
	if err != nil {
		return err
	}

	buf := bufferPool.Get()
	defer bufferPool.Put(buf)

	for _, hf := range fields {
		dst, encErr := enc.Encode(buf.Bytes(), hf, false)
		if encErr != nil {
			return fmt.Errorf("encode %s: %w", hf.Name, encErr)
		}
		buf.SetBytes(dst)
	}
	wire := buf.Bytes()

	fmt.Printf("%d header fields, %d bytes on the wire\n", len(fields), len(wire))

	dec, err := hpack.NewDecoder(hpack.DefaultDecoderConfig())
	if err != nil {
		return err
	}

	var got []hpack.HeaderField
	for len(wire) > 0 {
		n, hf, emitted, err := dec.Decode(wire)
		if err != nil {
			return fmt.Errorf("decode: %w", err)
		}
		wire = wire[n:]
		if emitted {
			got = append(got, hf)
		}
	}
	if err := dec.EndHeaders(); err != nil {
		return fmt.Errorf("end headers: %w", err)
	}

	for _, hf := range got {
		fmt.Printf("%s: %s\n", hf.Name, hf.Value)
	}

	if !sameFields(fields, got) {
		return fmt.Errorf("round-trip mismatch: encoded %d fields, decoded %d", len(fields), len(got))
	}
	return nil
}

// collectHeaderFields flattens a fasthttp request's pseudo-headers and
// regular headers into the (name, value) pairs HPACK encodes, in the
// conventional HTTP/2 order: pseudo-headers first.
func collectHeaderFields(req *fasthttp.Request) []hpack.HeaderField {
	fields := []hpack.HeaderField{
		{Name: ":method", Value: string(req.Header.Method())},
		{Name: ":path", Value: string(req.Header.RequestURI())},
		{Name: ":scheme", Value: "http"},
	}
	if host := req.Header.Peek("Host"); len(host) > 0 {
		fields = append(fields, hpack.HeaderField{Name: ":authority", Value: string(host)})
	}

	req.Header.VisitAll(func(key, value []byte) {
		name := string(key)
		if name == "Host" {
			return
		}
		fields = append(fields, hpack.HeaderField{Name: lowerASCII(name), Value: string(value)})
	})

	return fields
}

func lowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

func sameFields(a, b []hpack.HeaderField) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
