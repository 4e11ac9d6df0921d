package events

import (
	"context"
	"encoding/json"

	"github.com/joaofarinelli/we-crm-sub002/pkg/logger"
	"github.com/joaofarinelli/we-crm-sub002/pkg/messaging"
	"github.com/joaofarinelli/we-crm-sub002/pkg/tenant"
)

// ChangePublisher publishes table change events on the crm.events
// exchange. Publish failures are logged, never surfaced: the mutation
// already committed, so the caller must see success; consumers catch
// up on their next refetch.
type ChangePublisher struct {
	publisher *messaging.Publisher
	logger    *logger.Logger
}

// NewChangePublisher creates a new change publisher
func NewChangePublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*ChangePublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeCRMEvents, "crm-server", log)
	if err != nil {
		return nil, err
	}

	return &ChangePublisher{
		publisher: publisher,
		logger:    log,
	}, nil
}

// PublishCreated publishes a "<table>.created" event carrying the new record
func (p *ChangePublisher) PublishCreated(ctx context.Context, table, recordID string, record interface{}) {
	p.publish(ctx, table, messaging.ActionInsert, recordID, record, nil)
}

// PublishUpdated publishes a "<table>.updated" event carrying both row versions
func (p *ChangePublisher) PublishUpdated(ctx context.Context, table, recordID string, record, oldRecord interface{}) {
	p.publish(ctx, table, messaging.ActionUpdate, recordID, record, oldRecord)
}

// PublishDeleted publishes a "<table>.deleted" event carrying the removed record
func (p *ChangePublisher) PublishDeleted(ctx context.Context, table, recordID string, oldRecord interface{}) {
	p.publish(ctx, table, messaging.ActionDelete, recordID, nil, oldRecord)
}

func (p *ChangePublisher) publish(ctx context.Context, table, action, recordID string, record, oldRecord interface{}) {
	companyID, err := tenant.CompanyID(ctx)
	if err != nil {
		p.logger.Error().Err(err).Str("table", table).Msg("change event without company context, dropping")
		return
	}

	change := messaging.RecordChange{
		Table:     table,
		Action:    action,
		CompanyID: companyID,
		RecordID:  recordID,
	}
	if record != nil {
		if change.Record, err = json.Marshal(record); err != nil {
			p.logger.Error().Err(err).Str("table", table).Msg("failed to marshal change record")
			return
		}
	}
	if oldRecord != nil {
		if change.OldRecord, err = json.Marshal(oldRecord); err != nil {
			p.logger.Error().Err(err).Str("table", table).Msg("failed to marshal old change record")
			return
		}
	}

	eventType := messaging.ChangeEventType(table, action)
	if err := p.publisher.Publish(ctx, eventType, change); err != nil {
		p.logger.Error().Err(err).
			Str("event_type", eventType).
			Str("record_id", recordID).
			Msg("failed to publish change event")
	}
}
