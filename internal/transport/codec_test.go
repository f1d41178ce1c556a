package transport

import (
	"bytes"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := [][]byte{
		[]byte(`{"seq":1,"type":"request","command":"initialize"}`),
		[]byte(`{}`),
		[]byte(`{"seq":2,"type":"event","event":"stopped","body":{"reason":"breakpoint"}}`),
	}

	for _, body := range cases {
		framed := Encode(body)
		status, decoded, consumed := Decode(framed)
		if status != OK {
			t.Fatalf("Decode status = %v, want OK", status)
		}
		if !bytes.Equal(decoded, body) {
			t.Errorf("decoded body = %q, want %q", decoded, body)
		}
		if consumed != len(framed) {
			t.Errorf("consumed = %d, want %d", consumed, len(framed))
		}
	}
}

func TestDecodeMissingHeader(t *testing.T) {
	cases := [][]byte{
		nil,
		[]byte("Content-Length: 5"),
		[]byte("Content-Length: 5\r\n"),
		[]byte("garbage no header here"),
	}
	for _, buf := range cases {
		status, body, consumed := Decode(buf)
		if status != MissingHeader {
			t.Errorf("Decode(%q) status = %v, want MissingHeader", buf, status)
		}
		if body != nil || consumed != 0 {
			t.Errorf("Decode(%q) = (%q, %d), want (nil, 0)", buf, body, consumed)
		}
	}
}

func TestDecodeTruncatedBody(t *testing.T) {
	full := Encode([]byte(`{"seq":1}`))
	partial := full[:len(full)-3]

	status, body, consumed := Decode(partial)
	if status != TruncatedBody {
		t.Fatalf("Decode status = %v, want TruncatedBody", status)
	}
	if body != nil || consumed != 0 {
		t.Errorf("Decode truncated = (%q, %d), want (nil, 0)", body, consumed)
	}
}

func TestDecodeMultipleMessagesInOneBuffer(t *testing.T) {
	first := Encode([]byte(`{"seq":1}`))
	second := Encode([]byte(`{"seq":2}`))
	buf := append(append([]byte{}, first...), second...)

	status, body, consumed := Decode(buf)
	if status != OK {
		t.Fatalf("first Decode status = %v, want OK", status)
	}
	if string(body) != `{"seq":1}` {
		t.Errorf("first body = %q", body)
	}
	buf = buf[consumed:]

	status, body, consumed = Decode(buf)
	if status != OK {
		t.Fatalf("second Decode status = %v, want OK", status)
	}
	if string(body) != `{"seq":2}` {
		t.Errorf("second body = %q", body)
	}
	if consumed != len(buf) {
		t.Errorf("consumed = %d, want %d", consumed, len(buf))
	}
}

func TestDecodeCaseInsensitiveHeaderName(t *testing.T) {
	buf := []byte("content-length: 2\r\n\r\n{}")
	status, body, consumed := Decode(buf)
	if status != OK {
		t.Fatalf("Decode status = %v, want OK", status)
	}
	if string(body) != "{}" {
		t.Errorf("body = %q, want {}", body)
	}
	if consumed != len(buf) {
		t.Errorf("consumed = %d, want %d", consumed, len(buf))
	}
}

func TestDecodeMalformedContentLength(t *testing.T) {
	buf := []byte("Content-Length: notanumber\r\n\r\n{}")
	status, _, _ := Decode(buf)
	if status != MissingHeader {
		t.Errorf("Decode status = %v, want MissingHeader for malformed length", status)
	}
}
