package csv

import (
	stdcsv "encoding/csv"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderetl/internal/datasource"
)

func TestLoadTable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		opt   Options
		want  [][]string
	}{
		{
			name:  "header and rows",
			input: "id,client_id\n1,10\n2,20\n",
			want:  [][]string{{"id", "client_id"}, {"1", "10"}, {"2", "20"}},
		},
		{
			name:  "no trailing newline",
			input: "a,b\n1,2",
			want:  [][]string{{"a", "b"}, {"1", "2"}},
		},
		{
			name:  "empty input",
			input: "",
			want:  [][]string{},
		},
		{
			name:  "ragged rows are kept",
			input: "a,b,c\n1,2\n1,2,3,4\n",
			want:  [][]string{{"a", "b", "c"}, {"1", "2"}, {"1", "2", "3", "4"}},
		},
		{
			name:  "cells are not trimmed",
			input: "a,b\n 1 , 2\n",
			want:  [][]string{{"a", "b"}, {" 1 ", " 2"}},
		},
		{
			name:  "quoted field with comma",
			input: "a,b\n\"x,y\",2\n",
			want:  [][]string{{"a", "b"}, {"x,y", "2"}},
		},
		{
			name:  "leading bom is dropped",
			input: "\ufeffid,client_id\n1,10\n",
			want:  [][]string{{"id", "client_id"}, {"1", "10"}},
		},
		{
			name:  "custom delimiter",
			input: "a;b\n1;2\n",
			opt:   Options{Comma: ';'},
			want:  [][]string{{"a", "b"}, {"1", "2"}},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := LoadTable("order", strings.NewReader(tc.input), tc.opt)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestLoadTable_Malformed(t *testing.T) {
	t.Parallel()

	_, err := LoadTable("order_item", strings.NewReader("a,b\n\"unterminated,2\n"), Options{})
	require.Error(t, err)

	var tle *datasource.TableLoadError
	require.True(t, errors.As(err, &tle))
	assert.Equal(t, "order_item", tle.Source)

	var pe *stdcsv.ParseError
	assert.True(t, errors.As(err, &pe))
}
