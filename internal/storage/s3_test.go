package storage

import "testing"

func TestInferStorageType(t *testing.T) {
	tests := []struct {
		endpoint string
		want     StorageType
	}{
		{endpoint: "abc123.r2.cloudflarestorage.com", want: StorageTypeR2},
		{endpoint: "s3.us-east-1.amazonaws.com", want: StorageTypeS3},
		{endpoint: "S3.AMAZONAWS.COM", want: StorageTypeS3},
		{endpoint: "minio.internal:9000", want: StorageTypeS3Compatible},
		{endpoint: "localhost:9000", want: StorageTypeS3Compatible},
	}

	for _, tt := range tests {
		if got := inferStorageType(tt.endpoint); got != tt.want {
			t.Errorf("inferStorageType(%q) = %q, want %q", tt.endpoint, got, tt.want)
		}
	}
}

func TestNormalizeEndpoint(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "https://abc.r2.cloudflarestorage.com", want: "abc.r2.cloudflarestorage.com"},
		{in: "http://localhost:9000/", want: "localhost:9000"},
		{in: "minio.internal:9000/some/path", want: "minio.internal:9000"},
		{in: "s3.amazonaws.com", want: "s3.amazonaws.com"},
	}

	for _, tt := range tests {
		if got := normalizeEndpoint(tt.in); got != tt.want {
			t.Errorf("normalizeEndpoint(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGetURL(t *testing.T) {
	withCDN := &S3Storage{publicURL: "https://cdn.example.com", bucket: "audio"}
	if got := withCDN.GetURL("m1/audio.mp3"); got != "https://cdn.example.com/m1/audio.mp3" {
		t.Errorf("GetURL with public prefix = %q", got)
	}

	direct := &S3Storage{endpoint: "localhost:9000", bucket: "audio", useSSL: false}
	if got := direct.GetURL("m1/audio.mp3"); got != "http://localhost:9000/audio/m1/audio.mp3" {
		t.Errorf("GetURL without public prefix = %q", got)
	}
}
