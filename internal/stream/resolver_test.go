package stream

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"io"
	"testing"

	"github.com/tunevault/tunevault/internal/catalog"
	"github.com/tunevault/tunevault/internal/encryption"
	"github.com/tunevault/tunevault/internal/storage"
)

func testAudio(t *testing.T, n int) []byte {
	t.Helper()
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		t.Fatalf("rand.Read: %v", err)
	}
	return buf
}

func newTestResolver(t *testing.T) (*Resolver, *storage.LocalStore, *encryption.Codec) {
	t.Helper()
	store, err := storage.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	key, err := encryption.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	codec, err := encryption.NewCodec(key)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	return NewResolver(store, codec), store, codec
}

func putPlain(t *testing.T, store *storage.LocalStore, key string, data []byte) *catalog.Song {
	t.Helper()
	if err := store.Put(context.Background(), key, bytes.NewReader(data), int64(len(data))); err != nil {
		t.Fatalf("Put: %v", err)
	}
	return &catalog.Song{ID: "plain", ObjectKey: key, SizeBytes: int64(len(data))}
}

func putEncrypted(t *testing.T, store *storage.LocalStore, codec *encryption.Codec, key string, plaintext []byte) *catalog.Song {
	t.Helper()
	envelope, err := codec.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if err := store.Put(context.Background(), key, bytes.NewReader(envelope), int64(len(envelope))); err != nil {
		t.Fatalf("Put: %v", err)
	}
	return &catalog.Song{ID: "enc", ObjectKey: key, SizeBytes: int64(len(plaintext)), Encrypted: true}
}

func readView(t *testing.T, v *View) []byte {
	t.Helper()
	defer v.Body.Close()
	data, err := io.ReadAll(v.Body)
	if err != nil {
		t.Fatalf("read view body: %v", err)
	}
	return data
}

func TestOpenStreamPlain(t *testing.T) {
	resolver, store, _ := newTestResolver(t)
	audio := testAudio(t, 5000)
	song := putPlain(t, store, "songs/plain.mp3", audio)

	tests := []struct {
		name        string
		rangeHeader string
		wantRanged  bool
		wantStart   int64
		wantEnd     int64
	}{
		{"full", "", false, 0, 4999},
		{"prefix", "bytes=0-99", true, 0, 99},
		{"middle", "bytes=1000-1999", true, 1000, 1999},
		{"open_ended", "bytes=4000-", true, 4000, 4999},
		{"invalid_falls_back", "bytes=oops-", false, 0, 4999},
		{"unsatisfiable_falls_back", "bytes=99999-", false, 0, 4999},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view, err := resolver.OpenStream(context.Background(), song, tt.rangeHeader)
			if err != nil {
				t.Fatalf("OpenStream: %v", err)
			}
			if view.Ranged != tt.wantRanged || view.Start != tt.wantStart || view.End != tt.wantEnd {
				t.Fatalf("view = ranged=%v %d-%d, want ranged=%v %d-%d",
					view.Ranged, view.Start, view.End, tt.wantRanged, tt.wantStart, tt.wantEnd)
			}
			if view.TotalSize != int64(len(audio)) {
				t.Errorf("TotalSize = %d, want %d", view.TotalSize, len(audio))
			}
			got := readView(t, view)
			want := audio[tt.wantStart : tt.wantEnd+1]
			if !bytes.Equal(got, want) {
				t.Errorf("body mismatch: got %d bytes, want %d", len(got), len(want))
			}
		})
	}
}

func TestOpenStreamEncrypted(t *testing.T) {
	resolver, store, codec := newTestResolver(t)
	audio := testAudio(t, 5000)
	song := putEncrypted(t, store, codec, "songs/enc.enc", audio)

	tests := []struct {
		name        string
		rangeHeader string
		wantStart   int64
		wantEnd     int64
	}{
		{"full", "", 0, 4999},
		{"middle", "bytes=100-299", 100, 299},
		{"open_ended", "bytes=4990-", 4990, 4999},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view, err := resolver.OpenStream(context.Background(), song, tt.rangeHeader)
			if err != nil {
				t.Fatalf("OpenStream: %v", err)
			}
			if view.TotalSize != int64(len(audio)) {
				t.Errorf("TotalSize = %d, want plaintext size %d", view.TotalSize, len(audio))
			}
			got := readView(t, view)
			if !bytes.Equal(got, audio[tt.wantStart:tt.wantEnd+1]) {
				t.Errorf("decrypted slice mismatch for %s", tt.name)
			}
		})
	}
}

func TestOpenStreamEncryptedLargeSuffix(t *testing.T) {
	resolver, store, codec := newTestResolver(t)
	audio := testAudio(t, 1_000_000)
	song := putEncrypted(t, store, codec, "songs/big.enc", audio)

	view, err := resolver.OpenStream(context.Background(), song, "bytes=500000-")
	if err != nil {
		t.Fatalf("OpenStream: %v", err)
	}
	if view.TotalSize != 1_000_000 {
		t.Errorf("TotalSize = %d, want 1000000", view.TotalSize)
	}
	got := readView(t, view)
	if len(got) != 500_000 {
		t.Fatalf("body = %d bytes, want 500000", len(got))
	}
	if !bytes.Equal(got, audio[500_000:]) {
		t.Error("suffix bytes are at the wrong offset")
	}
}

func TestOpenStreamEncryptedNoKey(t *testing.T) {
	_, store, codec := newTestResolver(t)
	song := putEncrypted(t, store, codec, "songs/enc.enc", testAudio(t, 100))

	keyless := NewResolver(store, nil)
	_, err := keyless.OpenStream(context.Background(), song, "")
	if !errors.Is(err, encryption.ErrKeyNotConfigured) {
		t.Fatalf("err = %v, want ErrKeyNotConfigured", err)
	}
}

func TestOpenStreamWrongKey(t *testing.T) {
	_, store, codec := newTestResolver(t)
	song := putEncrypted(t, store, codec, "songs/enc.enc", testAudio(t, 100))

	otherKey, err := encryption.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	otherCodec, err := encryption.NewCodec(otherKey)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}

	_, err = NewResolver(store, otherCodec).OpenStream(context.Background(), song, "")
	if err == nil {
		t.Skip("wrong key decrypted to valid padding, rare but possible")
	}
	if !encryption.IsDecryptionError(err) {
		t.Fatalf("err = %v, want a decryption error", err)
	}
}

func TestOpenStreamMissingObject(t *testing.T) {
	resolver, _, _ := newTestResolver(t)
	song := &catalog.Song{ID: "ghost", ObjectKey: "songs/missing.mp3", SizeBytes: 100}

	_, err := resolver.OpenStream(context.Background(), song, "")
	if !storage.IsNotFound(err) {
		t.Fatalf("err = %v, want object-not-found", err)
	}
}

func TestOpenDownloadReturnsRawEnvelope(t *testing.T) {
	resolver, store, codec := newTestResolver(t)
	audio := testAudio(t, 1234)
	song := putEncrypted(t, store, codec, "songs/enc.enc", audio)

	body, size, err := resolver.OpenDownload(context.Background(), song)
	if err != nil {
		t.Fatalf("OpenDownload: %v", err)
	}
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read download: %v", err)
	}
	if int64(len(raw)) != size {
		t.Errorf("size = %d, body = %d bytes", size, len(raw))
	}
	if want := encryption.EncryptedSize(int64(len(audio))); size != want {
		t.Errorf("download size = %d, want envelope size %d", size, want)
	}
	plaintext, err := codec.Decrypt(raw)
	if err != nil {
		t.Fatalf("downloaded envelope failed to decrypt: %v", err)
	}
	if !bytes.Equal(plaintext, audio) {
		t.Error("downloaded envelope does not round-trip to the original audio")
	}
}
