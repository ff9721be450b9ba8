package watch

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodbstreams"
	streamtypes "github.com/aws/aws-sdk-go-v2/service/dynamodbstreams/types"
)

// StreamsClient is the subset of the DynamoDB Streams API the poller uses.
// It is satisfied by *dynamodbstreams.Client.
type StreamsClient interface {
	DescribeStream(ctx context.Context, params *dynamodbstreams.DescribeStreamInput, optFns ...func(*dynamodbstreams.Options)) (*dynamodbstreams.DescribeStreamOutput, error)
	GetShardIterator(ctx context.Context, params *dynamodbstreams.GetShardIteratorInput, optFns ...func(*dynamodbstreams.Options)) (*dynamodbstreams.GetShardIteratorOutput, error)
	GetRecords(ctx context.Context, params *dynamodbstreams.GetRecordsInput, optFns ...func(*dynamodbstreams.Options)) (*dynamodbstreams.GetRecordsOutput, error)
}

// PollConfig holds configuration for a Poller.
type PollConfig struct {
	// Interval is the delay between polling rounds.
	// Default: 1 second
	Interval time.Duration

	// Limit is the maximum number of records per GetRecords call.
	// Default: 100, Max: 1000
	Limit int32

	// Logger receives poll errors and shard lifecycle messages.
	// Default: slog.Default()
	Logger *slog.Logger
}

// validate ensures config values are within acceptable bounds.
func (c *PollConfig) validate() {
	if c.Interval <= 0 {
		c.Interval = time.Second
	}
	if c.Limit < 1 {
		c.Limit = 100
	}
	if c.Limit > 1000 {
		c.Limit = 1000
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Poller reads a DynamoDB stream and emits document change events.
//
// Existing shards are read from LATEST, so only changes after Run are
// observed; child shards discovered later are read from TRIM_HORIZON so no
// records are skipped across shard splits.
type Poller struct {
	client    StreamsClient
	streamARN string
	config    PollConfig
}

// NewPoller creates a Poller for the given stream ARN.
func NewPoller(client StreamsClient, streamARN string, config PollConfig) *Poller {
	config.validate()
	return &Poller{
		client:    client,
		streamARN: streamARN,
		config:    config,
	}
}

// Run starts polling and returns the event channel. The initial shard
// discovery is synchronous so that an unreachable stream fails here rather
// than inside the loop. The channel is closed when ctx is cancelled.
func (p *Poller) Run(ctx context.Context) (<-chan Event, error) {
	shards, err := p.listShards(ctx)
	if err != nil {
		return nil, fmt.Errorf("describe stream: %w", err)
	}

	iterators := make(map[string]string)
	seen := make(map[string]bool)
	for _, shardID := range shards {
		it, err := p.shardIterator(ctx, shardID, streamtypes.ShardIteratorTypeLatest)
		if err != nil {
			return nil, fmt.Errorf("shard %s: %w", shardID, err)
		}
		iterators[shardID] = it
		seen[shardID] = true
	}

	events := make(chan Event)
	go p.loop(ctx, iterators, seen, events)
	return events, nil
}

func (p *Poller) loop(ctx context.Context, iterators map[string]string, seen map[string]bool, events chan<- Event) {
	defer close(events)

	done := make(map[string]bool) // shards fully consumed
	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		refresh := false
		for shardID, iterator := range iterators {
			out, err := p.client.GetRecords(ctx, &dynamodbstreams.GetRecordsInput{
				ShardIterator: aws.String(iterator),
				Limit:         aws.Int32(p.config.Limit),
			})
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				p.config.Logger.Error("get records failed",
					"shardID", shardID,
					"error", err,
				)
				// Drop the iterator; the next refresh re-acquires one.
				delete(iterators, shardID)
				refresh = true
				continue
			}

			for _, rec := range out.Records {
				ev, ok := fromStreamRecord(rec)
				if !ok {
					continue
				}
				select {
				case events <- ev:
				case <-ctx.Done():
					return
				}
			}

			if out.NextShardIterator == nil {
				// Shard closed and fully read; its children appear on refresh.
				delete(iterators, shardID)
				done[shardID] = true
				refresh = true
			} else {
				iterators[shardID] = *out.NextShardIterator
			}
		}

		if refresh || len(iterators) == 0 {
			p.refreshShards(ctx, iterators, seen, done)
		}
	}
}

// refreshShards re-lists the stream's shards and acquires iterators for any
// shard not currently being read. Shards never seen before start at
// TRIM_HORIZON; previously-seen shards (whose iterator was dropped after an
// error) resume at LATEST.
func (p *Poller) refreshShards(ctx context.Context, iterators map[string]string, seen, done map[string]bool) {
	shards, err := p.listShards(ctx)
	if err != nil {
		if ctx.Err() == nil {
			p.config.Logger.Error("refresh shards failed", "error", err)
		}
		return
	}

	for _, shardID := range shards {
		if done[shardID] {
			continue
		}
		if _, active := iterators[shardID]; active {
			continue
		}
		iteratorType := streamtypes.ShardIteratorTypeTrimHorizon
		if seen[shardID] {
			iteratorType = streamtypes.ShardIteratorTypeLatest
		}
		it, err := p.shardIterator(ctx, shardID, iteratorType)
		if err != nil {
			if ctx.Err() == nil {
				p.config.Logger.Error("shard iterator failed", "shardID", shardID, "error", err)
			}
			continue
		}
		iterators[shardID] = it
		seen[shardID] = true
	}
}

func (p *Poller) listShards(ctx context.Context) ([]string, error) {
	var shards []string
	var exclusiveStart *string
	for {
		out, err := p.client.DescribeStream(ctx, &dynamodbstreams.DescribeStreamInput{
			StreamArn:             aws.String(p.streamARN),
			ExclusiveStartShardId: exclusiveStart,
		})
		if err != nil {
			return nil, err
		}
		if out.StreamDescription == nil {
			return shards, nil
		}
		for _, sh := range out.StreamDescription.Shards {
			if sh.ShardId != nil {
				shards = append(shards, *sh.ShardId)
			}
		}
		if out.StreamDescription.LastEvaluatedShardId == nil {
			return shards, nil
		}
		exclusiveStart = out.StreamDescription.LastEvaluatedShardId
	}
}

func (p *Poller) shardIterator(ctx context.Context, shardID string, iteratorType streamtypes.ShardIteratorType) (string, error) {
	out, err := p.client.GetShardIterator(ctx, &dynamodbstreams.GetShardIteratorInput{
		StreamArn:         aws.String(p.streamARN),
		ShardId:           aws.String(shardID),
		ShardIteratorType: iteratorType,
	})
	if err != nil {
		return "", err
	}
	if out.ShardIterator == nil {
		return "", fmt.Errorf("no iterator returned for shard %s", shardID)
	}
	return *out.ShardIterator, nil
}

func fromStreamRecord(rec streamtypes.Record) (Event, bool) {
	if rec.Dynamodb == nil {
		return Event{}, false
	}
	id := streamStringAttr(rec.Dynamodb.Keys, "id")
	if id == "" {
		return Event{}, false
	}

	switch rec.EventName {
	case streamtypes.OperationTypeInsert:
		return Event{ID: id, Kind: Put}, true
	case streamtypes.OperationTypeModify:
		oldTTL := streamNumberAttr(rec.Dynamodb.OldImage, "ttl")
		newTTL := streamNumberAttr(rec.Dynamodb.NewImage, "ttl")
		if oldTTL == 0 && newTTL != 0 {
			return Event{ID: id, Kind: Delete}, true
		}
		return Event{ID: id, Kind: Put}, true
	case streamtypes.OperationTypeRemove:
		return Event{ID: id, Kind: Delete}, true
	default:
		return Event{ID: id, Kind: Other}, true
	}
}

func streamStringAttr(image map[string]streamtypes.AttributeValue, key string) string {
	if v, ok := image[key].(*streamtypes.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

func streamNumberAttr(image map[string]streamtypes.AttributeValue, key string) int64 {
	if v, ok := image[key].(*streamtypes.AttributeValueMemberN); ok {
		n, _ := strconv.ParseInt(v.Value, 10, 64)
		return n
	}
	return 0
}
