package crawler

import (
	"reflect"
	"testing"

	"github.com/samvad-hq/samvad-site-harvester/pkg/sites"
)

func TestResolvePages(t *testing.T) {
	base := sites.Site{BaseURL: "https://ex.com", URL: "https://ex.com/news"}

	cases := []struct {
		name string
		pag  *sites.Pagination
		want []string
	}{
		{name: "absent", pag: nil, want: []string{"https://ex.com/news"}},
		{name: "disabled", pag: &sites.Pagination{Enabled: false, URLPattern: "/p/{page}", MaxPages: 3}, want: []string{"https://ex.com/news"}},
		{name: "enabled without pattern", pag: &sites.Pagination{Enabled: true, NextSelector: "a.next"}, want: []string{"https://ex.com/news"}},
		{
			name: "pattern range",
			pag:  &sites.Pagination{Enabled: true, URLPattern: "https://ex.com/p/{page}", StartPage: 2, MaxPages: 4},
			want: []string{"https://ex.com/p/2", "https://ex.com/p/3", "https://ex.com/p/4"},
		},
		{
			name: "relative pattern with query",
			pag:  &sites.Pagination{Enabled: true, URLPattern: "/list?page={page}", MaxPages: 2},
			want: []string{"https://ex.com/list?page=1", "https://ex.com/list?page=2"},
		},
		{
			name: "max defaults to start",
			pag:  &sites.Pagination{Enabled: true, URLPattern: "/p/{page}", StartPage: 5},
			want: []string{"https://ex.com/p/5"},
		},
		{
			name: "missing placeholder is repeated",
			pag:  &sites.Pagination{Enabled: true, URLPattern: "/p/all", MaxPages: 2},
			want: []string{"https://ex.com/p/all", "https://ex.com/p/all"},
		},
	}

	for _, tc := range cases {
		site := base
		site.Pagination = tc.pag
		if got := ResolvePages(site); !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("%s: ResolvePages = %v, want %v", tc.name, got, tc.want)
		}
	}
}
