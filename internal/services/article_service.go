package services

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"coconet/internal/models"
	"coconet/internal/repository"
)

const (
	articlesPath       = "article-service/open-api/articles"
	articleDetailPath  = "article-service/open-api/article/"
	popularArticlePath = "article-service/open-api/popular"
)

// ArticlePage is one list-query result.
type ArticlePage struct {
	Data          []models.Article
	TotalElements int
	TotalPages    int
}

func (p ArticlePage) Meta() models.PageMetadata {
	return models.PageMetadata{TotalElements: p.TotalElements, TotalPages: p.TotalPages}
}

// ArticleService is the article-resource wrapper. Filter values are passed
// through unvalidated; the server is authoritative.
type ArticleService struct {
	repo *repository.Repository[models.Article]
}

func NewArticleService(repo *repository.Repository[models.Article]) *ArticleService {
	return &ArticleService{repo: repo}
}

func (s *ArticleService) GetAllArticle(ctx context.Context, filter models.ArticleFilter, page models.PageRequest) (ArticlePage, error) {
	env, err := s.repo.Query(ctx, articlesPath, pageParams(page), filter)
	if err != nil {
		return ArticlePage{}, fmt.Errorf("list articles: %w", err)
	}
	return ArticlePage{Data: env.Data, TotalElements: env.TotalElements, TotalPages: env.TotalPages}, nil
}

func (s *ArticleService) GetDetailArticle(ctx context.Context, articleUUID string) (models.Article, error) {
	a, err := s.repo.Get(ctx, articleDetailPath+articleUUID)
	if err != nil {
		return models.Article{}, fmt.Errorf("get article %s: %w", articleUUID, err)
	}
	return a, nil
}

func (s *ArticleService) GetPopularArticles(ctx context.Context) ([]models.Article, error) {
	out, err := s.repo.List(ctx, popularArticlePath)
	if err != nil {
		return nil, fmt.Errorf("list popular articles: %w", err)
	}
	return out, nil
}

// pageParams maps a 1-based page to Spring's 0-based pageable parameters.
func pageParams(p models.PageRequest) url.Values {
	if p.IsZero() {
		return nil
	}
	v := url.Values{}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page-1))
	}
	if p.Size > 0 {
		v.Set("size", strconv.Itoa(p.Size))
	}
	return v
}
