// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kar_test

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/devblok/kiln/utility/kar"
)

var (
	testString1 = "idunvovkjnreovmegihjbrqlkmfrjnb"
	testString2 = "idunvovkjnreovmsdvwrvnervnreegihjbrqlkmfrjnb"
)

func buildArchive(t *testing.T, files map[string]string) []byte {
	t.Helper()
	builder, err := kar.NewBuilder(kar.Header{
		Author:      "devblok",
		DateCreated: time.Now().Unix(),
		Version:     1,
	})
	if err != nil {
		t.Fatal(err)
	}
	defer builder.Close()

	for name, content := range files {
		if err := builder.Add(name, []byte(content)); err != nil {
			t.Fatal(err)
		}
	}

	buf := bytes.NewBuffer([]byte{})
	written, err := builder.WriteTo(buf)
	if err != nil {
		t.Fatal(err)
	}
	if written != int64(buf.Len()) {
		t.Errorf("reported %d bytes written, buffer holds %d", written, buf.Len())
	}
	return buf.Bytes()
}

func TestCreateAndRead(t *testing.T) {
	data := buildArchive(t, map[string]string{
		"test":  testString1,
		"test2": testString2,
	})

	ar, err := kar.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}

	f, err := ar.Open("test2")
	if err != nil {
		t.Fatal(err)
	}
	if f.Name() != "test2" || f.Size() != int64(len(testString2)) {
		t.Errorf("unexpected entry %s of %d bytes", f.Name(), f.Size())
	}

	result := make([]byte, len(testString2))
	if _, err := io.ReadFull(f, result); err != nil {
		t.Fatal(err)
	}
	if string(result) != testString2 {
		t.Error("test string does not match up")
	}
}

func TestCreateAndReadAll(t *testing.T) {
	data := buildArchive(t, map[string]string{
		"test":  testString1,
		"test2": testString2,
		"empty": "",
	})

	ar, err := kar.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}

	names := ar.Names()
	if len(names) != 3 || names[0] != "empty" || names[1] != "test" || names[2] != "test2" {
		t.Errorf("unexpected names %v", names)
	}
	if ar.Header().Author != "devblok" {
		t.Errorf("author %q not kept", ar.Header().Author)
	}

	for name, expected := range map[string]string{"test": testString1, "test2": testString2, "empty": ""} {
		f, err := ar.ReadAll(name)
		if err != nil {
			t.Fatal(err)
		}
		if string(f) != expected {
			t.Errorf("%s does not match up", name)
		}
	}
}

func TestLayoutIsDeterministic(t *testing.T) {
	files := map[string]string{
		"a": testString1,
		"b": testString2,
		"c": testString1 + testString2,
	}
	builder, err := kar.NewBuilder(kar.Header{Author: "devblok", Version: 1})
	if err != nil {
		t.Fatal(err)
	}
	defer builder.Close()
	for _, name := range []string{"c", "a", "b"} {
		if err := builder.Add(name, []byte(files[name])); err != nil {
			t.Fatal(err)
		}
	}
	var first, second bytes.Buffer
	if _, err := builder.WriteTo(&first); err != nil {
		t.Fatal(err)
	}
	if _, err := builder.WriteTo(&second); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first.Bytes(), second.Bytes()) {
		t.Error("archives written from the same builder differ")
	}

	ar, err := kar.OpenReader(bytes.NewReader(first.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	var offset int64
	for _, e := range ar.Header().Index {
		if e.Offset != offset {
			t.Errorf("%s at offset %d, expected %d", e.Name, e.Offset, offset)
		}
		offset += e.CompressedSize
	}
}
