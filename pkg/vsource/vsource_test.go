package vsource

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestHTTPProviderFetch(t *testing.T) {
	payload := []byte("fake mp4 payload")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	dir := t.TempDir()
	p := NewHTTPProvider(Config{})
	path, err := p.Fetch(context.Background(), srv.URL+"/session.mp4", dir)
	if err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != string(payload) {
		t.Fatalf("下载内容不一致, got %q", b)
	}
}

func TestHTTPProviderFetch404(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	p := NewHTTPProvider(Config{})
	if _, err := p.Fetch(context.Background(), srv.URL+"/missing.mp4", t.TempDir()); err == nil {
		t.Fatal("404 应返回错误")
	}
}

func TestHTTPProviderInvalidRef(t *testing.T) {
	p := NewHTTPProvider(Config{})
	if _, err := p.Fetch(context.Background(), "ftp://example.com/a.mp4", t.TempDir()); err == nil {
		t.Fatal("非 http 引用应返回错误")
	}
}

func TestHTTPProviderPlaylist(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/live.m3u8", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, "#EXTM3U\n#EXT-X-VERSION:3\n#EXT-X-TARGETDURATION:4\n"+
			"#EXTINF:4.0,\nseg0.ts\n#EXTINF:4.0,\nseg1.ts\n#EXT-X-ENDLIST\n")
	})
	mux.HandleFunc("/seg0.ts", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("AAAA"))
	})
	mux.HandleFunc("/seg1.ts", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("BBBB"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	p := NewHTTPProvider(Config{})
	path, err := p.Fetch(context.Background(), srv.URL+"/live.m3u8", t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "AAAABBBB" {
		t.Fatalf("分片应按顺序合并, got %q", b)
	}
}

func TestFileProvider(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "local.mp4")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	var p FileProvider
	got, err := p.Fetch(context.Background(), "file://"+path, dir)
	if err != nil {
		t.Fatal(err)
	}
	if got != path {
		t.Fatalf("got %s, want %s", got, path)
	}

	if _, err := p.Fetch(context.Background(), filepath.Join(dir, "none.mp4"), dir); err == nil {
		t.Fatal("不存在的文件应返回错误")
	}
	if _, err := p.Fetch(context.Background(), dir, dir); err == nil {
		t.Fatal("目录应返回错误")
	}
}

func TestSelect(t *testing.T) {
	hp := NewHTTPProvider(Config{})
	if _, ok := Select("https://example.com/a.mp4", hp).(*HTTPProvider); !ok {
		t.Fatal("https 引用应选择 HTTP 提供者")
	}
	if _, ok := Select("/data/a.mp4", hp).(FileProvider); !ok {
		t.Fatal("本地路径应选择文件提供者")
	}
}
