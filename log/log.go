package log

import (
	"sort"

	"github.com/rs/zerolog"

	"github.com/arena-labs/bedwars-engine/types"
)

// Loggable is implemented by anything that can describe its team roster.
type Loggable interface {
	TeamNames() []types.TeamName
	MembersOf(team types.TeamName) []types.PlayerID
}

func loadTeamIntoArrayLogger(target Loggable, team types.TeamName, arrayLogger *zerolog.Array) *zerolog.Array {
	dictLogger := zerolog.Dict()
	dictLogger = dictLogger.Str("team", string(team))
	dictLogger = dictLogger.Int("members", len(target.MembersOf(team)))
	return arrayLogger.Dict(dictLogger)
}

// Teams logs the full team roster of a match.
func Teams(logger *zerolog.Logger, target Loggable, level zerolog.Level) {
	teams := target.TeamNames()
	sort.Slice(teams, func(i, j int) bool { return teams[i] < teams[j] })
	zeroLoggerEvent := logger.WithLevel(level)
	zeroLoggerEvent.Int("total_teams", len(teams))
	arrayLogger := zerolog.Arr()
	for _, team := range teams {
		arrayLogger = loadTeamIntoArrayLogger(target, team, arrayLogger)
	}
	zeroLoggerEvent.Array("teams", arrayLogger).Send()
}

// CreateMatchLogger creates a sub logger with the entry {"match" : matchID}.
func CreateMatchLogger(logger *zerolog.Logger, matchID string) *zerolog.Logger {
	newLogger := logger.With().Str("match", matchID).Logger()
	return &newLogger
}

// CreateGeneratorLogger creates a sub logger with the entry {"slot" : slotID}.
func CreateGeneratorLogger(logger *zerolog.Logger, slotID string) *zerolog.Logger {
	newLogger := logger.With().Str("slot", slotID).Logger()
	return &newLogger
}
