package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperr "github.com/docvault/docvault/internal/errors"
)

func TestSearchDocuments(t *testing.T) {
	repo := newTestRepo(t)
	work := mustCategory(t, repo, "Work", nil)
	personal := mustCategory(t, repo, "Personal", nil)

	mustDocument(t, repo, work.ID, "Launch Plan", "<p>rollout checklist for the beta</p>")
	mustDocument(t, repo, work.ID, "Meeting Notes", "<p>discussed the rollout date</p>")
	mustDocument(t, repo, personal.ID, "Recipes", "<p>sourdough starter schedule</p>")

	resp, err := repo.SearchDocuments(&SearchOptions{Query: "rollout"})
	require.NoError(t, err)
	assert.Equal(t, "rollout", resp.Query)
	require.Len(t, resp.Results, 2)
	for _, res := range resp.Results {
		assert.Positive(t, res.Relevance)
	}

	// Markup never leaks into the index.
	resp, err = repo.SearchDocuments(&SearchOptions{Query: "p"})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
}

func TestSearchMatchesTitle(t *testing.T) {
	repo := newTestRepo(t)
	work := mustCategory(t, repo, "Work", nil)
	mustDocument(t, repo, work.ID, "Quarterly Budget", "<p>numbers</p>")

	resp, err := repo.SearchDocuments(&SearchOptions{Query: "quarterly"})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "Quarterly Budget", resp.Results[0].Document.Title)
}

func TestSearchCategoryFilter(t *testing.T) {
	repo := newTestRepo(t)
	work := mustCategory(t, repo, "Work", nil)
	personal := mustCategory(t, repo, "Personal", nil)
	mustDocument(t, repo, work.ID, "Schedule", "<p>standup schedule</p>")
	mustDocument(t, repo, personal.ID, "Gym", "<p>training schedule</p>")

	resp, err := repo.SearchDocuments(&SearchOptions{Query: "schedule", CategoryID: work.ID})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, work.ID, resp.Results[0].Document.CategoryID)
}

func TestSearchIndexFollowsUpdates(t *testing.T) {
	repo := newTestRepo(t)
	work := mustCategory(t, repo, "Work", nil)
	d := mustDocument(t, repo, work.ID, "Plan", "<p>alpha milestone</p>")

	require.NoError(t, repo.UpdateDocument(d.ID, "Plan", "", "<p>omega milestone</p>"))

	resp, err := repo.SearchDocuments(&SearchOptions{Query: "alpha"})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)

	resp, err = repo.SearchDocuments(&SearchOptions{Query: "omega"})
	require.NoError(t, err)
	assert.Len(t, resp.Results, 1)

	require.NoError(t, repo.DeleteDocument(d.ID))
	resp, err = repo.SearchDocuments(&SearchOptions{Query: "omega"})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
}

func TestSearchRequiresQuery(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.SearchDocuments(nil)
	assert.True(t, apperr.Is(err, apperr.ErrInvalid))

	_, err = repo.SearchDocuments(&SearchOptions{})
	assert.True(t, apperr.Is(err, apperr.ErrInvalid))
}

func TestSearchLimitClamping(t *testing.T) {
	repo := newTestRepo(t)
	opts := &SearchOptions{Query: "anything", Limit: 500}
	_, err := repo.SearchDocuments(opts)
	require.NoError(t, err)
	assert.Equal(t, 100, opts.Limit)

	opts = &SearchOptions{Query: "anything"}
	_, err = repo.SearchDocuments(opts)
	require.NoError(t, err)
	assert.Equal(t, 20, opts.Limit)
}
