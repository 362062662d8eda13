package api

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestToQueryParams_SkipsNilAndBracketsArrays(t *testing.T) {
	got := ToQueryParams(map[string]any{"page": 1, "tags": []string{"a", "b"}, "x": nil})
	require.Equal(t, "page=1&tags[]=a&tags[]=b", got)
}

func TestToQueryParams_Options(t *testing.T) {
	params := map[string]any{"tags": []string{"a", "b"}, "x": nil, "empty": []int{}}

	require.Equal(t, "tags=a&tags=b", ToQueryParams(params, WithArrayFormat(ArrayRepeat)))
	require.Equal(t, "tags[]=a&tags[]=b&x=null", ToQueryParams(params, KeepNulls()))
}

func TestToQueryParams_EncodesObjectsAsJSON(t *testing.T) {
	got := ToQueryParams(map[string]any{
		"sort": map[string]string{"field": "createdAt", "order": "desc"},
	})
	require.Equal(t, "sort=%7B%22field%22%3A%22createdAt%22%2C%22order%22%3A%22desc%22%7D", got)
}

func TestToQueryParams_EncodesLikeURIComponent(t *testing.T) {
	search := "jo+ann & co/é"
	limit := 10
	var missing *int
	got := ToQueryParams(map[string]any{
		"search":  search,
		"limit":   &limit,
		"ratio":   0.5,
		"active":  true,
		"missing": missing,
		"mark":    "it's (ok)!*~",
	})
	require.Equal(t, "active=true&limit=10&mark=it's%20(ok)!*~&ratio=0.5&search=jo%2Bann%20%26%20co%2F%C3%A9", got)
}

func TestToQueryParams_Empty(t *testing.T) {
	require.Equal(t, "", ToQueryParams(nil))
	require.Equal(t, "", ToQueryParams(map[string]any{"x": nil}))
}
