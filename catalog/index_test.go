package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/gameark/core"
)

const header = "ID,Name,Year Published,Min Players,Max Players,Play Time,Min Age,Users Rated,Rating Average,Complexity,Mechanics,Domains\n"

func TestLoad(t *testing.T) {
	csvText := header +
		`1,Alpha,2015,2,4,60,10,1000,7.5,2.0,"Dice Rolling, Worker Placement",Strategy Games` + "\n" +
		`2,Beta,,,6,,12,50,,3.0,Cooperative Game,"Family Games, Thematic Games"` + "\n" +
		`3,,2010,1,1,30,8,10,6.0,1.0,,` + "\n" +
		`1,Alpha Duplicate,2016,2,4,60,10,1000,7.5,2.0,,` + "\n" +
		`x,Broken Id,2016,2,4,60,10,1000,7.5,2.0,,` + "\n" +
		`4,Gamma,2020,1,2,90,14,300,8.0,,,` + "\n"

	idx, err := Load(strings.NewReader(csvText))
	require.NoError(t, err)
	require.Equal(t, 3, idx.Len(), "blank name, duplicate id and bad id rows are dropped")
	assert.Equal(t, "utf-8", idx.Encoding())

	ids := make([]int64, 0, idx.Len())
	for _, g := range idx.Games() {
		ids = append(ids, g.ID)
	}
	assert.Equal(t, []int64{1, 2, 4}, ids)

	beta, ok := idx.Game(2)
	require.True(t, ok)
	assert.False(t, beta.HasRating)
	assert.False(t, beta.HasYear)
	// 中位数补齐：Min Players 存在值 {2,1} -> 1.5；Play Time {60,90} -> 75
	assert.Equal(t, 1.5, beta.MinPlayers)
	assert.Equal(t, 75.0, beta.PlayTime)
	assert.Equal(t, []string{"Family Games", "Thematic Games"}, beta.Domains)
	assert.Equal(t, []string{"cooperation"}, beta.MechanismCategories)

	gamma, _ := idx.Game(4)
	assert.Equal(t, 2.5, gamma.Complexity, "median of {2.0, 3.0}")

	alpha, _ := idx.Game(1)
	assert.Equal(t, []string{"strategy", "luck"}, alpha.MechanismCategories)

	space := idx.Space()
	// 机制: Cooperative Game, Dice Rolling, Worker Placement；领域: Family, Strategy, Thematic
	assert.Equal(t, 3+3+5, space.Dim())
	row := idx.Row(0)
	assert.Equal(t, []float64{0, 1, 1}, row[:3])
	assert.Equal(t, []float64{0, 1, 0}, row[3:6])
	for _, v := range row[6:] {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}

func TestLoadMissingColumns(t *testing.T) {
	_, err := Load(strings.NewReader("ID,Title\n1,Alpha\n"))
	require.Error(t, err)
	assert.True(t, core.IsDataLoad(err))

	_, err = Load(strings.NewReader("Name\nAlpha\n"))
	require.Error(t, err)
	assert.True(t, core.IsDataLoad(err))
}

func TestLoadEmpty(t *testing.T) {
	_, err := Load(strings.NewReader(header))
	require.Error(t, err)
	assert.True(t, core.IsDataLoad(err))
}

func TestLoadLegacyEncoding(t *testing.T) {
	raw := []byte(header + "1,Caf\xe9 International,1989,2,4,20,10,100,6.0,1.5,,\n")
	idx, err := Load(strings.NewReader(string(raw)))
	require.NoError(t, err)
	assert.Equal(t, "windows-1252", idx.Encoding())
	assert.Equal(t, "Café International", idx.GameAt(0).Name)

	_, err = Load(strings.NewReader(string(raw)), WithEncodings("utf-8"))
	require.Error(t, err)
	assert.True(t, core.IsDataLoad(err))
}

func TestLoadSemicolonWithAliases(t *testing.T) {
	text := "BGGId;Name;Rating Average;Users Rated;Complexity Average;Mechanics\n" +
		"10;Delta;8,79;42;3,86;Hand Management\n"
	idx, err := Load(strings.NewReader(text), WithComma(';'))
	require.NoError(t, err)
	g := idx.GameAt(0)
	assert.Equal(t, int64(10), g.ID)
	assert.InDelta(t, 8.79, g.Rating, 1e-9)
	assert.InDelta(t, 3.86, g.Complexity, 1e-9)
}

func TestFindByName(t *testing.T) {
	csvText := header +
		"1,Pandemic Legacy: Season 1,2015,2,4,60,13,50000,8.6,2.8,,\n" +
		"2,Pandemic,2008,2,4,45,8,100000,7.6,2.4,,\n" +
		"3,Catan,1995,3,4,120,10,100000,7.1,2.3,,\n" +
		"4,Catan!,1995,3,4,120,10,100,7.1,2.3,,\n" +
		"5,Natan,1995,3,4,120,10,100,7.1,2.3,,\n"
	idx, err := Load(strings.NewReader(csvText))
	require.NoError(t, err)

	tests := []struct {
		query string
		want  int64
		found bool
	}{
		{query: "pandemic", want: 2, found: true},
		{query: "PANDEMIC LEGACY", want: 1, found: true},
		{query: "atan", want: 3, found: true},
		{query: "  ", found: false},
		{query: "gloomhaven", found: false},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			pos, ok := idx.FindByName(tt.query)
			require.Equal(t, tt.found, ok)
			if ok {
				assert.Equal(t, tt.want, idx.GameAt(pos).ID)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	assert.Nil(t, SplitList("  "))
	assert.Equal(t, []string{"A", "B"}, SplitList(" A, ,B,A "))
}

func TestMinMaxNormalize(t *testing.T) {
	out := MinMaxNormalize([]float64{0, 5, 10})
	assert.InDelta(t, 0, out[0], 1e-12)
	assert.InDelta(t, 0.5, out[1], 1e-8)
	assert.InDelta(t, 1, out[2], 1e-8)

	same := MinMaxNormalize([]float64{3, 3})
	assert.Equal(t, []float64{0, 0}, same)
}
