package savegame

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/iancoleman/strcase"
	"github.com/mcncl/evosave/internal/errors"
	"github.com/mcncl/evosave/internal/models"
)

// Envelope keys.
const (
	DataKey = "data"
	GameKey = "game"
	TimeKey = "time"
)

// GameTypeEnum is the enum name of the game field.
const GameTypeEnum = "GameType"

// GameType is a GameType enum constructor.
type GameType string

const (
	Evo1 GameType = "Evo1"
	Evo2 GameType = "Evo2"
)

// GameTypes returns every known game.
func GameTypes() []GameType {
	return []GameType{Evo1, Evo2}
}

// ParseGameType accepts a game name in any casing, such as evo1, EVO1,
// evo-1 or evo_1.
func ParseGameType(s string) (GameType, error) {
	name := GameType(strcase.ToCamel(strings.ToLower(strings.TrimSpace(s))))
	for _, g := range GameTypes() {
		if g == name {
			return g, nil
		}
	}
	return "", errors.NewInputError(fmt.Sprintf("unknown game %q", s), errors.ErrUnknownGame)
}

// GameValue returns the normalized enum value for g.
func GameValue(g GameType) *models.Object {
	return models.NewObject(
		models.Member{Key: models.EnumNameKey, Value: GameTypeEnum},
		models.Member{Key: models.EnumTagKey, Value: string(g)},
		models.Member{Key: models.EnumArgsKey, Value: models.Array{}},
	)
}

// WrapSavegame builds the envelope {data, game, time} around data. A nil
// timestamp means now. The time is stored in epoch milliseconds as a float,
// which is how the game writes it.
func WrapSavegame(data models.Value, game GameType, timestamp *int64) *models.Object {
	ms := time.Now().UnixMilli()
	if timestamp != nil {
		ms = *timestamp
	}
	return models.NewObject(
		models.Member{Key: DataKey, Value: data},
		models.Member{Key: GameKey, Value: GameValue(game)},
		models.Member{Key: TimeKey, Value: float64(ms)},
	)
}

// Envelope is the content of a wrapped document.
type Envelope struct {
	Data models.Value
	// Game is empty when the document carries no known game.
	Game GameType
	// Time is in epoch milliseconds, zero when absent.
	Time int64
}

// Unwrap reads the envelope fields of doc. A document that is not an
// envelope is returned as Data.
func Unwrap(doc models.Value) Envelope {
	o, ok := doc.(*models.Object)
	if !ok || !o.Has(DataKey) {
		return Envelope{Data: doc}
	}
	env := Envelope{Data: member(o, DataKey)}
	if game, ok := member(o, GameKey).(*models.Object); ok {
		name, _ := game.Get(models.EnumNameKey)
		tag, _ := game.Get(models.EnumTagKey)
		if s, ok := tag.(string); ok && name == GameTypeEnum {
			if g, err := ParseGameType(s); err == nil {
				env.Game = g
			}
		}
	}
	env.Time, _ = timestamp(member(o, TimeKey))
	return env
}

// Rewrap returns a new envelope for game around doc, which may be a bare
// data tree or a previously decoded envelope:
//
//   - data is doc.data when present and not null, doc otherwise;
//   - extra keys of doc.game are kept, the enum name defaults to GameType
//     and the constructor is always set to game;
//   - time is doc.time when present and non-zero, nowMillis otherwise.
//
// doc is not modified.
func Rewrap(doc models.Value, game GameType, nowMillis int64) *models.Object {
	o, _ := doc.(*models.Object)

	data := doc
	if v := member(o, DataKey); v != nil {
		data = v
	}

	g := models.NewObject(
		models.Member{Key: models.EnumArgsKey, Value: models.Array{}},
		models.Member{Key: models.EnumNameKey, Value: GameTypeEnum},
	)
	if extra, ok := member(o, GameKey).(*models.Object); ok {
		for _, m := range extra.Members() {
			g.Set(m.Key, models.Clone(m.Value))
		}
	}
	g.Set(models.EnumTagKey, string(game))

	ts := nowMillis
	if t, ok := timestamp(member(o, TimeKey)); ok && t != 0 {
		ts = t
	}

	return models.NewObject(
		models.Member{Key: DataKey, Value: models.Clone(data)},
		models.Member{Key: GameKey, Value: g},
		models.Member{Key: TimeKey, Value: float64(ts)},
	)
}

// Target is one downloadable flavour of a savegame.
type Target struct {
	Label    string
	Game     GameType
	Disabled bool
}

// Targets lists the savegame flavours offered for download. The base
// game editions are listed but cannot be produced.
func Targets() []Target {
	return []Target{
		{Label: "Evoland 1 (Base game)", Game: Evo1, Disabled: true},
		{Label: "Evoland 2 (Base game)", Game: Evo2, Disabled: true},
		{Label: "Evoland 1 (Legendary edition)", Game: Evo1},
		{Label: "Evoland 2 (Legendary edition)", Game: Evo2},
	}
}

// Save is an encoded savegame for one target.
type Save struct {
	Target  Target
	Content string
}

// Saves encodes doc once per enabled target. Disabled targets are
// returned with empty Content.
func (c *Codec) Saves(doc models.Value, nowMillis int64) ([]Save, error) {
	var saves []Save
	for _, t := range Targets() {
		s := Save{Target: t}
		if !t.Disabled {
			content, err := c.Encode(Rewrap(doc, t.Game, nowMillis))
			if err != nil {
				return nil, err
			}
			s.Content = content
		}
		saves = append(saves, s)
	}
	return saves, nil
}

func member(o *models.Object, key string) models.Value {
	v, _ := o.Get(key)
	return v
}

// timestamp reads an epoch milliseconds value stored as int or float.
func timestamp(v models.Value) (int64, bool) {
	switch t := v.(type) {
	case int64:
		return t, true
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0, false
		}
		return int64(t), true
	}
	return 0, false
}
