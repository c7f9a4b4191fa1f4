package feature

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/gameark/core"
)

func testSpace(t *testing.T) *Space {
	t.Helper()
	mech := FitMultiHotEncoder([][]string{{"Dice Rolling", "Worker Placement"}, {"Cooperative Game"}})
	dom := FitMultiHotEncoder([][]string{{"Strategy Games"}, {"Family Games"}})
	scaler, err := FitMinMaxScaler([][]float64{
		{1, 2, 30, 8, 1.0},
		{2, 6, 120, 14, 4.0},
	})
	require.NoError(t, err)
	space, err := NewSpace(mech, dom, scaler)
	require.NoError(t, err)
	return space
}

func TestParseSettings(t *testing.T) {
	tests := []struct {
		players  string
		min, max float64
	}{
		{"1", 1, 1},
		{"2-4", 2, 4},
		{"5-8", 5, 8},
		{"8+", 8, 12},
		{"", 2, 4},
		{"lots", 2, 4},
	}
	for _, tt := range tests {
		min, max := ParsePlayers(tt.players)
		assert.Equal(t, tt.min, min, tt.players)
		assert.Equal(t, tt.max, max, tt.players)
	}

	assert.Equal(t, 180.0, ParseTime("180"))
	assert.Equal(t, 90.0, ParseTime("45"))
	assert.Equal(t, 6.0, ParseAge("6"))
	assert.Equal(t, 12.0, ParseAge("99"))
	assert.Equal(t, 4.5, ParseComplexity("4.5"))
	assert.Equal(t, 2.5, ParseComplexity("2"))
}

func TestEncodePreferences(t *testing.T) {
	space := testSpace(t)
	require.Equal(t, 3+2+5, space.Dim())

	prefs := &core.Preferences{
		SelectedMechanics: []string{"strategy", "not-a-category"},
		SelectedDomains:   []string{"Strategy Games"},
		GameSettings:      core.GameSettings{Players: "1", Time: "30", Age: "14", Complexity: "4.5"},
	}
	vec, err := EncodePreferences(prefs, space)
	require.NoError(t, err)

	// 机制类别: [Cooperative Game, Dice Rolling, Worker Placement]
	assert.Equal(t, []float64{0, 0, 1}, vec[:3], "strategy expands to Worker Placement only")
	// 领域类别: [Family Games, Strategy Games]
	assert.Equal(t, []float64{0, 1}, vec[3:5])
	// 数值块: 人数 (1,1) 时长 30 年龄 14 复杂度 4.5
	assert.InDelta(t, 0.0, vec[5], 1e-12)
	assert.InDelta(t, -0.25, vec[6], 1e-12)
	assert.InDelta(t, 0.0, vec[7], 1e-12)
	assert.InDelta(t, 1.0, vec[8], 1e-12)
	assert.InDelta(t, 3.5/3.0, vec[9], 1e-12)
}

func TestEncodePreferencesStable(t *testing.T) {
	space := testSpace(t)
	prefs := &core.Preferences{
		SelectedMechanics: []string{"luck", "cooperation"},
		SelectedDomains:   []string{"Family Games"},
	}
	a, err := EncodePreferences(prefs, space)
	require.NoError(t, err)
	b, err := EncodePreferences(prefs, space)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestEncodePreferencesUnknownDomainIgnored(t *testing.T) {
	space := testSpace(t)
	base := &core.Preferences{SelectedDomains: []string{"Family Games"}}
	withUnknown := &core.Preferences{SelectedDomains: []string{"Family Games", "Wargames"}}

	a, err := EncodePreferences(base, space)
	require.NoError(t, err)
	b, err := EncodePreferences(withUnknown, space)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestEncodePreferencesEmptyPayloadUsesDefaults(t *testing.T) {
	space := testSpace(t)
	vec, err := EncodePreferences(&core.Preferences{}, space)
	require.NoError(t, err)
	for _, v := range vec[:5] {
		assert.Zero(t, v)
	}
	// 默认人数 (2,4)
	assert.InDelta(t, 1.0, vec[5], 1e-12)
	assert.InDelta(t, 0.5, vec[6], 1e-12)
}

func TestEncodePreferencesWithoutSpace(t *testing.T) {
	_, err := EncodePreferences(&core.Preferences{}, nil)
	require.Error(t, err)
	assert.True(t, core.IsEncoding(err))
}
