package services

import (
	"net/http"

	"coconet/internal/config"
	"coconet/internal/models"
	"coconet/internal/repository"
)

type Services struct {
	Articles *ArticleService
	Users    *UserService
}

// New builds every service against cfg.APIBase, sharing one HTTP client and
// token source.
func New(cfg config.Config, tokens repository.TokenSource) (*Services, error) {
	client := &http.Client{Timeout: cfg.RequestTimeout()}
	opts := []repository.Option{repository.WithHTTPClient(client), repository.WithTokenSource(tokens)}

	articles, err := repository.New[models.Article](cfg.APIBase, opts...)
	if err != nil {
		return nil, err
	}
	members, err := repository.New[models.Member](cfg.APIBase, opts...)
	if err != nil {
		return nil, err
	}
	nameCheck, err := repository.New[bool](cfg.APIBase, opts...)
	if err != nil {
		return nil, err
	}
	return &Services{
		Articles: NewArticleService(articles),
		Users:    NewUserService(members, nameCheck),
	}, nil
}
