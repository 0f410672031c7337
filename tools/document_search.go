package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/kendra"
	"github.com/aws/smithy-go"
	log "github.com/sirupsen/logrus"
)

const (
	// NoRelevantPassages is returned in place of search results whenever the
	// index cannot be queried.
	NoRelevantPassages = "RELEVANT PASSAGES NOT FOUND"

	DocumentSearchName        = "Search"
	DocumentSearchDescription = "useful for when you need to answer questions using a document store"

	defaultPageSize   int32 = 4
	defaultPageNumber int32 = 1
)

//go:generate mockgen -source=document_search.go -destination=mocks/document_search.go -package=mocks
type Retriever interface {
	Retrieve(ctx context.Context, params *kendra.RetrieveInput, optFns ...func(*kendra.Options)) (*kendra.RetrieveOutput, error)
}

// DocumentSearch retrieves passages from a Kendra index and flattens them
// into a single context string.
type DocumentSearch struct {
	client      Retriever
	indexID     string
	pageSize    int32
	pageNumber  int32
	description string
}

func NewDocumentSearch(client Retriever, indexID string) *DocumentSearch {
	return &DocumentSearch{
		client:      client,
		indexID:     indexID,
		pageSize:    defaultPageSize,
		pageNumber:  defaultPageNumber,
		description: DocumentSearchDescription,
	}
}

func NewKendraDocumentSearch(ctx context.Context, indexID, region string) (*DocumentSearch, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewDocumentSearch(kendra.NewFromConfig(cfg), indexID), nil
}

func (s *DocumentSearch) WithDescription(description string) *DocumentSearch {
	s.description = description
	return s
}

func (s *DocumentSearch) Search(ctx context.Context, query string) string {
	result, err := s.client.Retrieve(ctx, &kendra.RetrieveInput{
		IndexId:    aws.String(s.indexID),
		QueryText:  aws.String(query),
		PageSize:   aws.Int32(s.pageSize),
		PageNumber: aws.Int32(s.pageNumber),
	})
	if err != nil {
		fields := log.Fields{"index": s.indexID, "query": query}
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			fields["code"] = apiErr.ErrorCode()
		}
		log.WithFields(fields).WithError(err).Warn("document search failed")
		return NoRelevantPassages
	}
	if result == nil {
		log.WithField("index", s.indexID).Warn("document search returned no response")
		return NoRelevantPassages
	}
	var passages strings.Builder
	for _, item := range result.ResultItems {
		fmt.Fprintf(&passages, "[Title: %s, URI: %s, Passage content: %s] ",
			aws.ToString(item.DocumentTitle),
			aws.ToString(item.DocumentURI),
			aws.ToString(item.Content),
		)
	}
	log.Debugf("document search returned %d passages", len(result.ResultItems))
	return passages.String()
}

func (s *DocumentSearch) Execute(ctx context.Context, input string) (string, error) {
	return s.Search(ctx, input), nil
}

func (s *DocumentSearch) Name() string {
	return DocumentSearchName
}

func (s *DocumentSearch) Description() string {
	return s.description
}
