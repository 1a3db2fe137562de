package paging_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacentio/dyalchemy/paging"
)

const (
	pageTwoCursor = "eyJsYXN0RXZhbHVhdGVkS2V5Ijp7ImlkIjoidXVpZCIsInRpdGxlIjoidGl0bGUiLCJ5ZWFyIjoxOTgwfSwic2" +
		"NhbkluZGV4Rm9yd2FyZCI6dHJ1ZSwibGltaXQiOjEsImN1cnJlbnRQYWdlIjoyfQ=="
	pageThreeCursor = "eyJsYXN0RXZhbHVhdGVkS2V5Ijp7ImlkIjoidXVpZCIsInRpdGxlIjoidGl0bGUiLCJ5ZWFyIjoxOTgwfSwi" +
		"c2NhbkluZGV4Rm9yd2FyZCI6dHJ1ZSwiY3VycmVudFBhZ2UiOjMsImxpbWl0IjoxfQ=="
	pageOneBackwardCursor = "eyJsYXN0RXZhbHVhdGVkS2V5Ijp7ImlkIjoidXVpZCIsInRpdGxlIjoidGl0bGUiLCJ5ZWFyIjoxOTgwfSwic2" +
		"NhbkluZGV4Rm9yd2FyZCI6ZmFsc2UsImN1cnJlbnRQYWdlIjoxLCJsaW1pdCI6MX0="
)

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

func TestDecode_Empty(t *testing.T) {
	s, err := paging.Decode("")
	require.NoError(t, err)
	assert.Equal(t, paging.State{}, s)
}

func TestDecode_IssuedCursor(t *testing.T) {
	s, err := paging.Decode(pageTwoCursor)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"id": "uuid", "title": "title", "year": float64(1980)}, s.LastEvaluatedKey)
	require.NotNil(t, s.ScanIndexForward)
	assert.True(t, *s.ScanIndexForward)
	require.NotNil(t, s.CurrentPage)
	assert.Equal(t, 2, *s.CurrentPage)
	require.NotNil(t, s.Limit)
	assert.Equal(t, 1, *s.Limit)
}

func TestDecode_Invalid(t *testing.T) {
	for _, cursor := range []string{
		"--invalid--",
		"bm90LWpzb24=",                 // "not-json"
		"eyJjdXJyZW50UGFnZSI6MH0=",     // {"currentPage":0}
		"eyJsaW1pdCI6InR3ZW50eSJ9",     // {"limit":"twenty"}
		"eyJsaW1pdCI6MH0=",             // {"limit":0}
		"eyJsaW1pdCI6LTd9",             // {"limit":-7}
		"eyJsaW1pdCI6NDI5NDk2NzI5N30=", // {"limit":4294967297}
	} {
		t.Run(cursor, func(t *testing.T) {
			_, err := paging.Decode(cursor)
			require.Error(t, err)
			assert.ErrorIs(t, err, paging.ErrInvalidCursor)
		})
	}
}

func TestRoundTrip(t *testing.T) {
	states := []paging.State{
		{},
		{
			LastEvaluatedKey: map[string]any{"id": "uuid", "year": float64(1980)},
			ScanIndexForward: boolPtr(false),
			CurrentPage:      intPtr(7),
			Limit:            intPtr(50),
		},
		{
			LastEvaluatedKey: map[string]any{"id": "x", "nested": map[string]any{"a": "b"}},
			ScanIndexForward: boolPtr(true),
			CurrentPage:      intPtr(1),
		},
	}

	for _, s := range states {
		cursor, err := paging.Encode(s)
		require.NoError(t, err)

		got, err := paging.Decode(cursor)
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
}

func TestBuildPage_FirstPageWithoutMore(t *testing.T) {
	page, err := paging.BuildPage(1, intPtr(20), nil)
	require.NoError(t, err)

	assert.Nil(t, page.Next)
	assert.Nil(t, page.Previous)
	assert.Equal(t, 1, page.Index.Current)
	assert.Equal(t, intPtr(20), page.Size)
}

func TestBuildPage_NextAndPrevious(t *testing.T) {
	lek := map[string]any{"id": "uuid", "title": "title", "year": float64(1980)}

	page, err := paging.BuildPage(2, intPtr(1), lek)
	require.NoError(t, err)

	require.NotNil(t, page.Next)
	assert.Equal(t, pageThreeCursor, page.Next.Cursor)
	assert.Equal(t, intPtr(1), page.Next.Limit)

	require.NotNil(t, page.Previous)
	assert.Equal(t, pageOneBackwardCursor, page.Previous.Cursor)

	next, err := paging.Decode(page.Next.Cursor)
	require.NoError(t, err)
	assert.Equal(t, 3, *next.CurrentPage)
	assert.Equal(t, 1, *next.Limit)
	assert.True(t, *next.ScanIndexForward)

	prev, err := paging.Decode(page.Previous.Cursor)
	require.NoError(t, err)
	assert.Equal(t, 1, *prev.CurrentPage)
	assert.False(t, *prev.ScanIndexForward)
}

func TestBuildPage_Unbounded(t *testing.T) {
	page, err := paging.BuildPage(1, nil, nil)
	require.NoError(t, err)
	assert.Nil(t, page.Size)
	assert.Nil(t, page.Next)
}
