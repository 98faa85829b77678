package pipeline

import (
	"bytes"
	"strings"
	"testing"

	"github.com/aevon-lab/metric-oracle/internal/core/oracle"
	"github.com/aevon-lab/metric-oracle/internal/core/series"
	"github.com/stretchr/testify/require"
)

func TestReadRecords(t *testing.T) {
	input := strings.Join([]string{
		"hist|[-50,-30,-10,0]|p2name0_hist,description0,{key0:value0}",
		"lval|[3,1.5]|p2name1_lval,description1,{key1:value1}",
	}, "\n") + "\n"

	records, err := ReadRecords(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 2)

	require.Equal(t, oracle.KindHist, records[0].Kind)
	require.Len(t, records[0].Values, 4)
	require.Equal(t, "-30", records[0].Values[1].String())
	require.Equal(t, "p2name0_hist", records[0].Key.Name)
	require.Equal(t, series.Labels{{Key: "key0", Value: "value0"}}, records[0].Key.Labels)

	require.Equal(t, oracle.KindLastValue, records[1].Kind)
	require.Equal(t, "1.5", records[1].Values[1].String())
}

func TestReadRecords_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "wrong field count", input: "sum|[1]\n", want: "wrong number of fields"},
		{name: "unknown kind", input: "avg|[1]|n,d,{}\n", want: "unknown aggregation kind"},
		{name: "missing brackets", input: "sum|1,2|n,d,{}\n", want: "brackets"},
		{name: "bad number", input: "sum|[1,x]|n,d,{}\n", want: "value \"x\""},
		{name: "bad properties", input: "sum|[1]|n,d\n", want: "name,description,{labels}"},
		{name: "line number reported", input: "sum|[1]|n,d,{}\nsum|[1]|n2,d\n", want: "data line 2"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ReadRecords(strings.NewReader(tc.input))
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestWriteRecords_MatchesReader(t *testing.T) {
	records := []Record{
		{
			Kind:   oracle.KindDist,
			Values: oracle.FromInts(4, -2, 17),
			Key:    series.Key{Name: "p2name5_dist", Description: "description5", Labels: series.Labels{{Key: "key5", Value: "value5"}}},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteRecords(&buf, records))
	require.Equal(t, "dist|[4,-2,17]|p2name5_dist,description5,{key5:value5}\n", buf.String())

	back, err := ReadRecords(&buf)
	require.NoError(t, err)
	require.Equal(t, records[0].Key, back[0].Key)
	require.Equal(t, records[0].Kind, back[0].Kind)
}

func TestAnswer_Line(t *testing.T) {
	key := series.Key{Name: "p2name0_x", Description: "description0", Labels: series.Labels{{Key: "key0", Value: "value0"}}}
	props := key.String()
	values := oracle.FromInts(-50, -30, -10, 0, 10, 30, 50, 5, 15, -5)

	tests := []struct {
		kind oracle.Kind
		want string
	}{
		{oracle.KindSum, props + "|sum|15"},
		{oracle.KindLastValue, props + "|lval|-5"},
		{oracle.KindMMSC, props + "|mmsc|15|-50|50|10"},
		{oracle.KindDist, props + "|dist|15|-50|50|10|{-8,2,13}"},
		{oracle.KindHist, props + "|hist|15|10|{2,4,8,10}"},
	}
	for _, tc := range tests {
		t.Run(tc.kind.String(), func(t *testing.T) {
			s, err := oracle.Summarize(tc.kind, values, oracle.DefaultOptions())
			require.NoError(t, err)
			require.Equal(t, tc.want, Answer{Key: key, Summary: s}.Line())
		})
	}
}

func TestWriteAnswers(t *testing.T) {
	key := series.Key{Name: "a", Labels: series.Labels{}}
	s, err := oracle.Summarize(oracle.KindSum, oracle.FromInts(1, 2), oracle.DefaultOptions())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteAnswers(&buf, []Answer{{Key: key, Summary: s}, {Key: key, Summary: s}}))
	require.Equal(t, "a,,{}|sum|3\na,,{}|sum|3\n", buf.String())
}
