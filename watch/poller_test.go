package watch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodbstreams"
	streamtypes "github.com/aws/aws-sdk-go-v2/service/dynamodbstreams/types"
)

func insertRecord(id string) streamtypes.Record {
	return streamtypes.Record{
		EventName: streamtypes.OperationTypeInsert,
		Dynamodb: &streamtypes.StreamRecord{
			Keys: map[string]streamtypes.AttributeValue{
				"id": &streamtypes.AttributeValueMemberS{Value: id},
			},
		},
	}
}

func removeRecord(id string) streamtypes.Record {
	return streamtypes.Record{
		EventName: streamtypes.OperationTypeRemove,
		Dynamodb: &streamtypes.StreamRecord{
			Keys: map[string]streamtypes.AttributeValue{
				"id": &streamtypes.AttributeValueMemberS{Value: id},
			},
		},
	}
}

// fakeShard holds the scripted record batches for one shard. A nil entry at
// the end of batches closes the shard.
type fakeShard struct {
	batches [][]streamtypes.Record
	closed  bool
}

// fakeStreams is a scripted StreamsClient.
type fakeStreams struct {
	mu     sync.Mutex
	shards map[string]*fakeShard
	order  []string
}

func newFakeStreams() *fakeStreams {
	return &fakeStreams{shards: map[string]*fakeShard{}}
}

func (f *fakeStreams) addShard(id string, closed bool, batches ...[]streamtypes.Record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shards[id] = &fakeShard{batches: batches, closed: closed}
	f.order = append(f.order, id)
}

func (f *fakeStreams) DescribeStream(ctx context.Context, params *dynamodbstreams.DescribeStreamInput, optFns ...func(*dynamodbstreams.Options)) (*dynamodbstreams.DescribeStreamOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var shards []streamtypes.Shard
	for _, id := range f.order {
		shards = append(shards, streamtypes.Shard{ShardId: aws.String(id)})
	}
	return &dynamodbstreams.DescribeStreamOutput{
		StreamDescription: &streamtypes.StreamDescription{Shards: shards},
	}, nil
}

func (f *fakeStreams) GetShardIterator(ctx context.Context, params *dynamodbstreams.GetShardIteratorInput, optFns ...func(*dynamodbstreams.Options)) (*dynamodbstreams.GetShardIteratorOutput, error) {
	return &dynamodbstreams.GetShardIteratorOutput{
		ShardIterator: params.ShardId,
	}, nil
}

func (f *fakeStreams) GetRecords(ctx context.Context, params *dynamodbstreams.GetRecordsInput, optFns ...func(*dynamodbstreams.Options)) (*dynamodbstreams.GetRecordsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	// The fake's iterator is just the shard id.
	shard := f.shards[*params.ShardIterator]
	out := &dynamodbstreams.GetRecordsOutput{
		NextShardIterator: params.ShardIterator,
	}
	if shard == nil {
		return out, nil
	}
	if len(shard.batches) > 0 {
		out.Records = shard.batches[0]
		shard.batches = shard.batches[1:]
	}
	if len(shard.batches) == 0 && shard.closed {
		out.NextShardIterator = nil
	}
	return out, nil
}

func collectEvents(t *testing.T, ch <-chan Event, n int) []Event {
	t.Helper()
	var got []Event
	timeout := time.After(5 * time.Second)
	for len(got) < n {
		select {
		case ev, ok := <-ch:
			if !ok {
				t.Fatalf("channel closed after %d events, expected %d", len(got), n)
			}
			got = append(got, ev)
		case <-timeout:
			t.Fatalf("timed out after %d events, expected %d", len(got), n)
		}
	}
	return got
}

func TestPoller_EmitsEvents(t *testing.T) {
	fake := newFakeStreams()
	fake.addShard("shard-1", false,
		[]streamtypes.Record{insertRecord("a"), removeRecord("b")},
	)

	p := NewPoller(fake, "arn:stream", PollConfig{Interval: time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := p.Run(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := collectEvents(t, ch, 2)
	if got[0] != (Event{ID: "a", Kind: Put}) {
		t.Errorf("unexpected first event %+v", got[0])
	}
	if got[1] != (Event{ID: "b", Kind: Delete}) {
		t.Errorf("unexpected second event %+v", got[1])
	}

	cancel()
	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected channel to close after cancel")
		}
	case <-time.After(5 * time.Second):
		t.Error("timed out waiting for channel close")
	}
}

func TestPoller_FollowsChildShards(t *testing.T) {
	fake := newFakeStreams()
	// shard-1 delivers one batch and closes; shard-2 appears on refresh and
	// is read from TRIM_HORIZON.
	fake.addShard("shard-1", true,
		[]streamtypes.Record{insertRecord("a")},
	)

	p := NewPoller(fake, "arn:stream", PollConfig{Interval: time.Millisecond})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := p.Run(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := collectEvents(t, ch, 1); got[0] != (Event{ID: "a", Kind: Put}) {
		t.Fatalf("unexpected event %+v", got[0])
	}

	fake.addShard("shard-2", false,
		[]streamtypes.Record{insertRecord("c")},
	)

	if got := collectEvents(t, ch, 1); got[0] != (Event{ID: "c", Kind: Put}) {
		t.Errorf("unexpected event from child shard %+v", got[0])
	}
}

func TestPollConfig_Defaults(t *testing.T) {
	var cfg PollConfig
	cfg.validate()

	if cfg.Interval != time.Second {
		t.Errorf("expected default interval 1s, got %v", cfg.Interval)
	}
	if cfg.Limit != 100 {
		t.Errorf("expected default limit 100, got %d", cfg.Limit)
	}
	if cfg.Logger == nil {
		t.Error("expected default logger")
	}

	cfg = PollConfig{Limit: 10000}
	cfg.validate()
	if cfg.Limit != 1000 {
		t.Errorf("expected limit capped at 1000, got %d", cfg.Limit)
	}
}

func TestFromStreamRecord(t *testing.T) {
	tests := []struct {
		name     string
		record   streamtypes.Record
		expected Event
		ok       bool
	}{
		{
			name:     "insert",
			record:   insertRecord("doc-1"),
			expected: Event{ID: "doc-1", Kind: Put},
			ok:       true,
		},
		{
			name:     "remove",
			record:   removeRecord("doc-1"),
			expected: Event{ID: "doc-1", Kind: Delete},
			ok:       true,
		},
		{
			name: "modify setting ttl is a delete",
			record: streamtypes.Record{
				EventName: streamtypes.OperationTypeModify,
				Dynamodb: &streamtypes.StreamRecord{
					Keys: map[string]streamtypes.AttributeValue{
						"id": &streamtypes.AttributeValueMemberS{Value: "doc-1"},
					},
					NewImage: map[string]streamtypes.AttributeValue{
						"ttl": &streamtypes.AttributeValueMemberN{Value: "1700000000"},
					},
				},
			},
			expected: Event{ID: "doc-1", Kind: Delete},
			ok:       true,
		},
		{
			name:   "nil stream record dropped",
			record: streamtypes.Record{EventName: streamtypes.OperationTypeInsert},
			ok:     false,
		},
		{
			name: "missing id dropped",
			record: streamtypes.Record{
				EventName: streamtypes.OperationTypeInsert,
				Dynamodb:  &streamtypes.StreamRecord{},
			},
			ok: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, ok := fromStreamRecord(tt.record)
			if ok != tt.ok {
				t.Fatalf("expected ok=%v, got %v", tt.ok, ok)
			}
			if ok && ev != tt.expected {
				t.Errorf("expected %+v, got %+v", tt.expected, ev)
			}
		})
	}
}
