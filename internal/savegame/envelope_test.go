package savegame

import (
	stderrors "errors"
	"testing"

	"github.com/mcncl/evosave/internal/errors"
	"github.com/mcncl/evosave/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGameType(t *testing.T) {
	tests := []struct {
		input   string
		want    GameType
		wantErr bool
	}{
		{input: "Evo1", want: Evo1},
		{input: "evo1", want: Evo1},
		{input: "EVO2", want: Evo2},
		{input: "evo-2", want: Evo2},
		{input: "evo_1", want: Evo1},
		{input: " evo 2 ", want: Evo2},
		{input: "evo3", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseGameType(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, stderrors.Is(err, errors.ErrUnknownGame))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWrapSavegame(t *testing.T) {
	ts := int64(42)
	env := WrapSavegame("payload", Evo1, &ts)

	assert.Equal(t, []string{DataKey, GameKey, TimeKey}, env.Keys())

	game, _ := env.Get(GameKey)
	assert.True(t, models.Equal(GameValue(Evo1), game))

	tv, _ := env.Get(TimeKey)
	assert.Equal(t, float64(42), tv)
}

func TestWrapSavegame_DefaultsToNow(t *testing.T) {
	env := WrapSavegame(nil, Evo2, nil)

	tv, _ := env.Get(TimeKey)
	ms, ok := tv.(float64)
	require.True(t, ok)
	assert.Greater(t, ms, float64(1600000000000))
}

func TestUnwrap(t *testing.T) {
	t.Run("bare data", func(t *testing.T) {
		env := Unwrap(models.Array{int64(1)})
		assert.Equal(t, models.Array{int64(1)}, env.Data)
		assert.Empty(t, env.Game)
		assert.Zero(t, env.Time)
	})

	t.Run("object without data key", func(t *testing.T) {
		doc := models.NewObject(models.Member{Key: "gold", Value: int64(1)})
		env := Unwrap(doc)
		assert.Same(t, doc, env.Data)
	})

	t.Run("unknown game", func(t *testing.T) {
		doc := models.NewObject(
			models.Member{Key: DataKey, Value: "x"},
			models.Member{Key: GameKey, Value: models.NewObject(
				models.Member{Key: models.EnumNameKey, Value: GameTypeEnum},
				models.Member{Key: models.EnumTagKey, Value: "Evo9"},
			)},
			models.Member{Key: TimeKey, Value: int64(7)},
		)
		env := Unwrap(doc)
		assert.Equal(t, "x", env.Data)
		assert.Empty(t, env.Game)
		assert.Equal(t, int64(7), env.Time)
	})
}

func TestRewrap(t *testing.T) {
	const now = int64(1234)

	t.Run("bare data", func(t *testing.T) {
		data := models.NewObject(models.Member{Key: "gold", Value: int64(5)})

		env := Rewrap(data, Evo2, now)

		got, _ := env.Get(DataKey)
		assert.True(t, models.Equal(data, got))
		assert.NotSame(t, data, got)

		tv, _ := env.Get(TimeKey)
		assert.Equal(t, float64(now), tv)

		game, _ := env.Get(GameKey)
		g := game.(*models.Object)
		assert.Equal(t, []string{models.EnumArgsKey, models.EnumNameKey, models.EnumTagKey}, g.Keys())
		tag, _ := g.Get(models.EnumTagKey)
		assert.Equal(t, "Evo2", tag)
	})

	t.Run("existing envelope", func(t *testing.T) {
		doc := models.NewObject(
			models.Member{Key: DataKey, Value: models.Array{int64(1)}},
			models.Member{Key: GameKey, Value: models.NewObject(
				models.Member{Key: models.EnumNameKey, Value: GameTypeEnum},
				models.Member{Key: models.EnumTagKey, Value: "Evo1"},
				models.Member{Key: models.EnumArgsKey, Value: models.Array{}},
				models.Member{Key: "slot", Value: int64(3)},
			)},
			models.Member{Key: TimeKey, Value: float64(99)},
		)

		env := Rewrap(doc, Evo2, now)

		data, _ := env.Get(DataKey)
		assert.Equal(t, models.Array{int64(1)}, data)

		tv, _ := env.Get(TimeKey)
		assert.Equal(t, float64(99), tv)

		game, _ := env.Get(GameKey)
		g := game.(*models.Object)
		tag, _ := g.Get(models.EnumTagKey)
		slot, _ := g.Get("slot")
		assert.Equal(t, "Evo2", tag)
		assert.Equal(t, int64(3), slot)

		// the source document is untouched
		orig, _ := doc.Get(GameKey)
		origTag, _ := orig.(*models.Object).Get(models.EnumTagKey)
		assert.Equal(t, "Evo1", origTag)
	})

	t.Run("null data and zero time", func(t *testing.T) {
		doc := models.NewObject(
			models.Member{Key: DataKey, Value: nil},
			models.Member{Key: TimeKey, Value: int64(0)},
		)

		env := Rewrap(doc, Evo1, now)

		data, _ := env.Get(DataKey)
		assert.True(t, models.Equal(doc, data))
		tv, _ := env.Get(TimeKey)
		assert.Equal(t, float64(now), tv)
	})
}

func TestTargets(t *testing.T) {
	targets := Targets()
	require.Len(t, targets, 4)

	var enabled []GameType
	for _, target := range targets {
		if !target.Disabled {
			enabled = append(enabled, target.Game)
		}
	}
	assert.Equal(t, []GameType{Evo1, Evo2}, enabled)
	assert.Equal(t, "Evoland 1 (Base game)", targets[0].Label)
}

func TestCodec_Saves(t *testing.T) {
	doc, err := Decode(evo2Body + "#" + evo2Sum)
	require.NoError(t, err)

	saves, err := NewCodec().Saves(doc.Root, 1)
	require.NoError(t, err)
	require.Len(t, saves, 4)

	assert.Empty(t, saves[0].Content)
	assert.Empty(t, saves[1].Content)
	assert.Equal(t, evo1Body+"#"+evo1Sum, saves[2].Content)
	assert.Equal(t, evo2Body+"#"+evo2Sum, saves[3].Content)
}
