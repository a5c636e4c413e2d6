package listing

import (
	"fmt"
	"strings"

	"coconet/internal/models"
)

type TabKey string

const (
	TabAll     TabKey = "ALL"
	TabProject TabKey = "PROJECT"
	TabStudy   TabKey = "STUDY"
)

const NoResultsMessage = "원하시는 게시글이 없습니다."

func ParseTab(s string) (TabKey, error) {
	switch TabKey(strings.ToUpper(strings.TrimSpace(s))) {
	case "", TabAll:
		return TabAll, nil
	case TabProject:
		return TabProject, nil
	case TabStudy:
		return TabStudy, nil
	default:
		return "", fmt.Errorf("unknown tab %q", s)
	}
}

// Derive projects articles onto tab, preserving order. ALL returns every
// article; the type tabs return the matching subsequence.
func Derive(articles []models.Article, tab TabKey) []models.Article {
	out := make([]models.Article, 0, len(articles))
	for _, a := range articles {
		if tab == TabAll || string(a.ArticleType) == string(tab) {
			out = append(out, a)
		}
	}
	return out
}

type TabView struct {
	Tab         TabKey           `json:"tab"`
	Articles    []models.Article `json:"articles"`
	EmptyMarker bool             `json:"empty_marker"`
	Message     string           `json:"message,omitempty"`
}

// View derives the tab and its empty state. Only STUDY carries a "no results"
// marker, and only when the whole fetched list is empty; ALL and PROJECT
// render a bare empty container.
// TODO: confirm with design whether every tab should show the marker when its own subset is empty.
func View(articles []models.Article, tab TabKey) TabView {
	v := TabView{Tab: tab, Articles: Derive(articles, tab)}
	if tab == TabStudy && len(articles) == 0 {
		v.EmptyMarker = true
		v.Message = NoResultsMessage
	}
	return v
}
