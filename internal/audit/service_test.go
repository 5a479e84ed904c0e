package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	rows       []TimelineRow
	gotOffset  int
	gotLimit   int
	gotFilters TimelineFilters
	err        error
}

func (s *stubRepo) Window(ctx context.Context, f TimelineFilters, offset, limit int) ([]TimelineRow, error) {
	s.gotFilters, s.gotOffset, s.gotLimit = f, offset, limit
	if s.err != nil {
		return nil, s.err
	}
	if offset >= len(s.rows) {
		return nil, nil
	}
	end := offset + limit
	if end > len(s.rows) {
		end = len(s.rows)
	}
	return s.rows[offset:end], nil
}

func rows(n int) []TimelineRow {
	out := make([]TimelineRow, n)
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	for i := range out {
		out[i] = TimelineRow{ID: int64(n - i), At: base.Add(-time.Duration(i) * time.Hour), Action: "orders:save", Entity: "order"}
	}
	return out
}

func TestTimelinePaging(t *testing.T) {
	repo := &stubRepo{rows: rows(25)}
	svc := NewService(repo)

	first, err := svc.Timeline(context.Background(), TimelineFilters{PageSize: 10, Actor: "  Mariam "})
	require.NoError(t, err)
	assert.Len(t, first.Rows, 10)
	assert.Equal(t, PagingInfo{Page: 1, PageSize: 10, HasNext: true, NextPage: 2}, first.Paging)
	assert.Equal(t, 11, repo.gotLimit)
	assert.Equal(t, "Mariam", repo.gotFilters.Actor)

	last, err := svc.Timeline(context.Background(), TimelineFilters{Page: 3, PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, last.Rows, 5)
	assert.Equal(t, 20, repo.gotOffset)
	assert.Equal(t, PagingInfo{Page: 3, PageSize: 10, PrevPage: 2}, last.Paging)
}

func TestTimelineClampsPageSize(t *testing.T) {
	repo := &stubRepo{}
	res, err := NewService(repo).Timeline(context.Background(), TimelineFilters{PageSize: 500})
	require.NoError(t, err)
	assert.Equal(t, maxPageSize, res.Paging.PageSize)
	assert.NotNil(t, res.Rows)

	res, err = NewService(repo).Timeline(context.Background(), TimelineFilters{})
	require.NoError(t, err)
	assert.Equal(t, defaultPageSize, res.Paging.PageSize)
	assert.Equal(t, 1, res.Paging.Page)
}

func TestTimelineErrors(t *testing.T) {
	_, err := NewService(nil).Timeline(context.Background(), TimelineFilters{})
	assert.Error(t, err)

	boom := errors.New("db down")
	_, err = NewService(&stubRepo{err: boom}).Export(context.Background(), TimelineFilters{})
	assert.ErrorIs(t, err, boom)
}
