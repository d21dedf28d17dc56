// Package events publishes fire-and-forget domain events for downstream
// consumers (notifications, audit, analytics) — spec.md §7 "Side effects":
// round.completed, position.finalized, tournament.completed. Grounded on the
// pack's segmentio/kafka-go producer idiom.
package events

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/cuesports/progression/internal/domain"
)

const (
	TopicRoundCompleted      = "progression.round.completed"
	TopicPositionFinalized   = "progression.position.finalized"
	TopicTournamentCompleted = "progression.tournament.completed"
)

// Publisher writes domain events to Kafka. Publish failures are logged, not
// returned, matching spec.md §7's framing of events as side effects the
// progression outcome does not depend on.
type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher returns a Publisher backed by a single asynchronous writer
// shared by all topics; each message names its own topic.
func NewPublisher(brokers []string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
			Async:        true,
		},
	}
}

type RoundCompletedEvent struct {
	TournamentID string       `json:"tournamentId"`
	Level        domain.Level `json:"level"`
	EntityID     string       `json:"entityId"`
	RoundLabel   string       `json:"roundLabel"`
	MatchIDs     []string     `json:"matchIds"`
}

type PositionFinalizedEvent struct {
	TournamentID string          `json:"tournamentId"`
	Level        domain.Level    `json:"level"`
	EntityID     string          `json:"entityId"`
	Positions    domain.Positions `json:"positions"`
}

type TournamentCompletedEvent struct {
	TournamentID string `json:"tournamentId"`
}

func (p *Publisher) PublishRoundCompleted(ctx context.Context, evt RoundCompletedEvent) {
	p.publish(ctx, TopicRoundCompleted, evt.TournamentID+"/"+string(evt.Level)+"/"+evt.EntityID, evt)
}

func (p *Publisher) PublishPositionFinalized(ctx context.Context, evt PositionFinalizedEvent) {
	p.publish(ctx, TopicPositionFinalized, evt.TournamentID+"/"+string(evt.Level)+"/"+evt.EntityID, evt)
}

func (p *Publisher) PublishTournamentCompleted(ctx context.Context, evt TournamentCompletedEvent) {
	p.publish(ctx, TopicTournamentCompleted, evt.TournamentID, evt)
}

func (p *Publisher) publish(ctx context.Context, topic, key string, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Printf("events: failed to marshal %s event: %v", topic, err)
		return
	}

	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	msg := kafka.Message{Topic: topic, Key: []byte(key), Value: body, Time: time.Now()}
	if err := p.writer.WriteMessages(writeCtx, msg); err != nil {
		log.Printf("events: failed to publish %s event for %s: %v", topic, key, err)
	}
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
