// Package mongo implements the Bracket Store on top of go.mongodb.org/mongo-driver.
// The bracket is one document per tournament with the nested
// rounds/roundStatus/bracketLevels/positions shape spec.md §3 describes, so a
// document store — rather than the Match Store's relational rows — is the
// natural fit, mirrored from how the pack's other services use Mongo for
// nested, evolving aggregates.
package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cuesports/progression/internal/domain"
	"github.com/cuesports/progression/internal/repository"
)

type bracketStore struct {
	collection *mongo.Collection
}

// NewBracketStore returns a repository.BracketStore backed by the given
// collection.
func NewBracketStore(collection *mongo.Collection) repository.BracketStore {
	return &bracketStore{collection: collection}
}

type bracketDocument struct {
	TournamentID            string                                     `bson:"tournamentId"`
	Rounds                  map[string]map[string]map[string][]string  `bson:"rounds"`
	RoundStatus             map[string]string                          `bson:"roundStatus"`
	BracketLevels           map[string]map[string]bracketLevelDocument `bson:"bracketLevels"`
	Positions               map[string]map[string]positionsDocument    `bson:"positions"`
	AdvancementRules        map[string]string                          `bson:"advancementRules"`
	SpecialTournamentConfig map[string]string                          `bson:"specialTournamentConfig"`
	ParticipantScope        scopeDocument                              `bson:"participantScope"`
	CreatedAt               time.Time                                  `bson:"createdAt"`
	LastUpdated             time.Time                                  `bson:"lastUpdated"`
}

type bracketLevelDocument struct {
	PlayerCount  int    `bson:"playerCount"`
	CurrentRound string `bson:"currentRound"`
	Status       string `bson:"status"`
}

type positionsDocument struct {
	First  *playerRefDocument `bson:"first"`
	Second *playerRefDocument `bson:"second"`
	Third  *playerRefDocument `bson:"third"`
}

type playerRefDocument struct {
	ID          string `bson:"id"`
	Name        string `bson:"name"`
	CommunityID string `bson:"communityId"`
}

type scopeDocument struct {
	CommunityIDs []string `bson:"communityIds"`
	CountyIDs    []string `bson:"countyIds"`
	RegionIDs    []string `bson:"regionIds"`
}

func (s *bracketStore) Get(ctx context.Context, tournamentID string) (*domain.Bracket, error) {
	var doc bracketDocument
	err := s.collection.FindOne(ctx, bson.M{"tournamentId": tournamentID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrBracketNotFound
		}
		return nil, err
	}
	return fromDocument(doc), nil
}

func (s *bracketStore) Create(ctx context.Context, b *domain.Bracket) error {
	_, err := s.collection.InsertOne(ctx, toDocument(b))
	return err
}

// SetRoundMatches performs a targeted field-path update, not a whole-document
// rewrite, so concurrent writers touching different (level, entity, round)
// tuples of the same bracket never clobber each other (spec.md §5
// concurrency requirement).
func (s *bracketStore) SetRoundMatches(ctx context.Context, tournamentID string, level domain.Level, entityID, roundLabel string, matchIDs []string, status domain.RoundStatus) error {
	roundsPath := "rounds." + string(level) + "." + entityID + "." + roundLabel
	statusKey := domain.RoundStatusKey(level, entityID, roundLabel)
	statusPath := "roundStatus." + statusKey
	summaryPath := "bracketLevels." + string(level) + "." + entityID

	update := bson.M{
		"$set": bson.M{
			roundsPath:                    matchIDs,
			statusPath:                    string(status),
			summaryPath + ".currentRound": roundLabel,
			summaryPath + ".status":       string(status),
			summaryPath + ".playerCount":  len(matchIDs) * 2,
			"lastUpdated":                 time.Now(),
		},
	}
	res, err := s.collection.UpdateOne(ctx, bson.M{"tournamentId": tournamentID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repository.ErrBracketNotFound
	}
	return nil
}

// SetPositions writes positions[level][entity] via a field-path update.
// Callers must have already checked domain.Bracket.GetPositions to preserve
// the idempotent re-finalize contract (spec.md §4.5) — this method itself
// always overwrites, matching how Mongo upserts work.
func (s *bracketStore) SetPositions(ctx context.Context, tournamentID string, level domain.Level, entityID string, pos domain.Positions) error {
	path := "positions." + string(level) + "." + entityID
	update := bson.M{
		"$set": bson.M{
			path:          toPositionsDocument(pos),
			"lastUpdated": time.Now(),
		},
	}
	opts := options.Update().SetUpsert(false)
	res, err := s.collection.UpdateOne(ctx, bson.M{"tournamentId": tournamentID}, update, opts)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return repository.ErrBracketNotFound
	}
	return nil
}

func toDocument(b *domain.Bracket) bracketDocument {
	doc := bracketDocument{
		TournamentID:            b.TournamentID,
		Rounds:                  make(map[string]map[string]map[string][]string),
		RoundStatus:             make(map[string]string),
		BracketLevels:           make(map[string]map[string]bracketLevelDocument),
		Positions:               make(map[string]map[string]positionsDocument),
		AdvancementRules:        b.AdvancementRules,
		SpecialTournamentConfig: b.SpecialTournamentConfig,
		ParticipantScope: scopeDocument{
			CommunityIDs: b.ParticipantScope.CommunityIDs,
			CountyIDs:    b.ParticipantScope.CountyIDs,
			RegionIDs:    b.ParticipantScope.RegionIDs,
		},
		CreatedAt:   b.CreatedAt,
		LastUpdated: b.LastUpdated,
	}
	for level, byEntity := range b.Rounds {
		doc.Rounds[string(level)] = byEntity
	}
	for key, status := range b.RoundStatus {
		doc.RoundStatus[key] = string(status)
	}
	for level, byEntity := range b.BracketLevels {
		m := make(map[string]bracketLevelDocument, len(byEntity))
		for entity, summary := range byEntity {
			m[entity] = bracketLevelDocument{PlayerCount: summary.PlayerCount, CurrentRound: summary.CurrentRound, Status: string(summary.Status)}
		}
		doc.BracketLevels[string(level)] = m
	}
	for level, byEntity := range b.Positions {
		m := make(map[string]positionsDocument, len(byEntity))
		for entity, pos := range byEntity {
			m[entity] = toPositionsDocument(pos)
		}
		doc.Positions[string(level)] = m
	}
	return doc
}

func fromDocument(doc bracketDocument) *domain.Bracket {
	b := &domain.Bracket{
		TournamentID:            doc.TournamentID,
		Rounds:                  make(map[domain.Level]map[string]map[string][]string),
		RoundStatus:             make(map[string]domain.RoundStatus),
		BracketLevels:           make(map[domain.Level]map[string]domain.BracketLevelSummary),
		Positions:               make(map[domain.Level]map[string]domain.Positions),
		AdvancementRules:        doc.AdvancementRules,
		SpecialTournamentConfig: doc.SpecialTournamentConfig,
		ParticipantScope: domain.ParticipantScope{
			CommunityIDs: doc.ParticipantScope.CommunityIDs,
			CountyIDs:    doc.ParticipantScope.CountyIDs,
			RegionIDs:    doc.ParticipantScope.RegionIDs,
		},
		CreatedAt:   doc.CreatedAt,
		LastUpdated: doc.LastUpdated,
	}
	for level, byEntity := range doc.Rounds {
		b.Rounds[domain.Level(level)] = byEntity
	}
	for key, status := range doc.RoundStatus {
		b.RoundStatus[key] = domain.RoundStatus(status)
	}
	for level, byEntity := range doc.BracketLevels {
		m := make(map[string]domain.BracketLevelSummary, len(byEntity))
		for entity, summary := range byEntity {
			m[entity] = domain.BracketLevelSummary{PlayerCount: summary.PlayerCount, CurrentRound: summary.CurrentRound, Status: domain.RoundStatus(summary.Status)}
		}
		b.BracketLevels[domain.Level(level)] = m
	}
	for level, byEntity := range doc.Positions {
		m := make(map[string]domain.Positions, len(byEntity))
		for entity, pos := range byEntity {
			m[entity] = fromPositionsDocument(pos)
		}
		b.Positions[domain.Level(level)] = m
	}
	return b
}

func toPositionsDocument(pos domain.Positions) positionsDocument {
	return positionsDocument{
		First:  toPlayerRefDocument(pos.First),
		Second: toPlayerRefDocument(pos.Second),
		Third:  toPlayerRefDocument(pos.Third),
	}
}

func fromPositionsDocument(doc positionsDocument) domain.Positions {
	return domain.Positions{
		First:  fromPlayerRefDocument(doc.First),
		Second: fromPlayerRefDocument(doc.Second),
		Third:  fromPlayerRefDocument(doc.Third),
	}
}

func toPlayerRefDocument(ref *domain.PlayerRef) *playerRefDocument {
	if ref == nil {
		return nil
	}
	return &playerRefDocument{ID: ref.ID, Name: ref.Name, CommunityID: ref.CommunityID}
}

func fromPlayerRefDocument(doc *playerRefDocument) *domain.PlayerRef {
	if doc == nil {
		return nil
	}
	return &domain.PlayerRef{ID: doc.ID, Name: doc.Name, CommunityID: doc.CommunityID}
}
