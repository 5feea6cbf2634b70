package service

import (
	"coding_quiz_backend/internal/config"
	"coding_quiz_backend/internal/repository"
	"encoding/xml"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// FeedService 生成 RSS 订阅与站点地图
type FeedService struct {
	SubjectRepo *repository.SubjectRepository
	ProblemRepo *repository.ProblemRepository
	Site        *config.SiteConfig
}

func NewFeedService(subjectRepo *repository.SubjectRepository, problemRepo *repository.ProblemRepository, site *config.SiteConfig) *FeedService {
	return &FeedService{SubjectRepo: subjectRepo, ProblemRepo: problemRepo, Site: site}
}

func (s *FeedService) baseURL() string {
	return strings.TrimRight(s.Site.BaseURL, "/")
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	GUID        string `xml:"guid"`
	PubDate     string `xml:"pubDate"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	Language      string    `xml:"language"`
	LastBuildDate string    `xml:"lastBuildDate"`
	Items         []rssItem `xml:"item"`
}

type rssFeed struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

// BuildRSS 最近新增题目的 RSS 2.0 订阅源
func (s *FeedService) BuildRSS() ([]byte, error) {
	problems, err := s.ProblemRepo.ListRecent(20)
	if err != nil {
		return nil, err
	}

	subjects, err := s.SubjectRepo.ListAll()
	if err != nil {
		return nil, err
	}
	names := make(map[uint]string, len(subjects))
	for _, sub := range subjects {
		names[sub.ID] = sub.Name
	}

	feed := rssFeed{
		Version: "2.0",
		Channel: rssChannel{
			Title:         s.Site.Name,
			Link:          s.baseURL(),
			Description:   s.Site.Name + " - 새로운 문제 업데이트",
			Language:      "ko",
			LastBuildDate: time.Now().Format(time.RFC1123Z),
		},
	}

	for _, p := range problems {
		subjectName := names[p.SubjectID]
		title := p.Content
		if len([]rune(title)) > 80 {
			title = string([]rune(title)[:80]) + "..."
		}
		feed.Channel.Items = append(feed.Channel.Items, rssItem{
			Title:       fmt.Sprintf("[%s] %s", subjectName, title),
			Link:        fmt.Sprintf("%s/problems/%s", s.baseURL(), url.PathEscape(subjectName)),
			Description: p.Content,
			GUID:        fmt.Sprintf("%s/problems/%d", s.baseURL(), p.ID),
			PubDate:     p.CreatedAt.Format(time.RFC1123Z),
		})
	}

	out, err := xml.MarshalIndent(feed, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

type sitemapSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

// BuildSitemap 公开页面与各科目答题页的站点地图
func (s *FeedService) BuildSitemap() ([]byte, error) {
	subjects, err := s.SubjectRepo.ListAll()
	if err != nil {
		return nil, err
	}

	set := sitemapSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs: []sitemapURL{
			{Loc: s.baseURL() + "/", ChangeFreq: "daily", Priority: "1.0"},
			{Loc: s.baseURL() + "/login", ChangeFreq: "monthly", Priority: "0.3"},
			{Loc: s.baseURL() + "/register", ChangeFreq: "monthly", Priority: "0.3"},
		},
	}

	for _, sub := range subjects {
		if !sub.IsPublic {
			continue
		}
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        fmt.Sprintf("%s/problems/%s", s.baseURL(), url.PathEscape(sub.Name)),
			LastMod:    sub.UpdatedAt.Format("2006-01-02"),
			ChangeFreq: "weekly",
			Priority:   "0.8",
		})
	}

	out, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}
