package contact

import (
	"encoding/xml"
	"net/http"
	"strings"
	"time"
)

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

// Sections of the single-page site, in page order.
var siteAnchors = []struct {
	path       string
	changeFreq string
	priority   string
}{
	{"/", "weekly", "1.0"},
	{"/#about", "monthly", "0.8"},
	{"/#services", "monthly", "0.8"},
	{"/#projects", "weekly", "0.9"},
	{"/#contact", "monthly", "0.7"},
}

var now = time.Now

func (s *Server) HandleSitemap(w http.ResponseWriter, r *http.Request) {
	base := s.baseURL(r)
	lastMod := now().UTC().Format(time.DateOnly)

	set := urlSet{XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9"}
	for _, a := range siteAnchors {
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        base + a.path,
			LastMod:    lastMod,
			ChangeFreq: a.changeFreq,
			Priority:   a.priority,
		})
	}

	out, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		LoggerFromContext(r.Context()).Error("sitemap encode failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	_, _ = w.Write([]byte(xml.Header))
	_, _ = w.Write(out)
}

func (s *Server) HandleRobots(w http.ResponseWriter, r *http.Request) {
	var b strings.Builder
	b.WriteString("User-agent: *\n")
	b.WriteString("Allow: /\n")
	b.WriteString("Disallow: /api/\n\n")
	b.WriteString("Sitemap: " + s.baseURL(r) + "/sitemap.xml\n")

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(b.String()))
}

// baseURL prefers SITE_URL; otherwise it is rebuilt from the request.
func (s *Server) baseURL(r *http.Request) string {
	if s.cfg.SiteURL != "" {
		return s.cfg.SiteURL
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if s.cfg.TrustProxy {
		if p := strings.TrimSpace(strings.Split(r.Header.Get("X-Forwarded-Proto"), ",")[0]); p == "http" || p == "https" {
			scheme = p
		}
	}
	return scheme + "://" + r.Host
}
