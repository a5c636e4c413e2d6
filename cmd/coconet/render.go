package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"coconet/internal/listing"
	"coconet/internal/models"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printView(w io.Writer, state listing.SessionState, view listing.TabView) error {
	fmt.Fprintf(w, "%s  page %d/%d  (%d total)\n", view.Tab, state.CurrentPage, state.Page.TotalPages, state.Page.TotalElements)
	if len(state.Stacks) > 0 || state.Position != "" {
		fmt.Fprintf(w, "filters: stacks=[%s] position=%s\n", strings.Join(state.Stacks, ", "), state.Position)
	}
	if state.LastError != "" {
		fmt.Fprintf(w, "[warn] %s\n", state.LastError)
	}
	if view.EmptyMarker {
		fmt.Fprintln(w, view.Message)
		return nil
	}
	return writeTable(w, view.Articles)
}

func printArticles(w io.Writer, articles []models.Article, asJSON bool) error {
	if asJSON {
		if articles == nil {
			articles = []models.Article{}
		}
		return printJSON(w, articles)
	}
	return writeTable(w, articles)
}

func printArticle(w io.Writer, a models.Article, asJSON bool) error {
	if asJSON {
		return printJSON(w, a)
	}
	fmt.Fprintf(w, "%s\n%s · %s · status %d\n", a.Title, a.ArticleType, a.MeetingType, a.Status)
	if len(a.Stacks) > 0 {
		fmt.Fprintf(w, "stacks: %s\n", strings.Join(a.Stacks, ", "))
	}
	fmt.Fprintf(w, "views %d  bookmarks %d\n\n%s\n", a.ViewCount, a.BookmarkCount, a.Content)
	return nil
}

func writeTable(w io.Writer, articles []models.Article) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "UUID\tTYPE\tTITLE\tSTACKS")
	for _, a := range articles {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", a.ArticleUUID, a.ArticleType, a.Title, strings.Join(a.Stacks, ","))
	}
	return tw.Flush()
}
