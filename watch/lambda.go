package watch

import (
	"strconv"

	"github.com/aws/aws-lambda-go/events"
)

// FromLambdaEvent converts a Lambda-delivered DynamoDB stream event into
// document change events. Records without a string "id" key are dropped;
// a MODIFY that newly sets the soft-delete TTL is reported as a Delete.
func FromLambdaEvent(ev events.DynamoDBEvent) []Event {
	out := make([]Event, 0, len(ev.Records))
	for _, record := range ev.Records {
		if e, ok := fromLambdaRecord(record); ok {
			out = append(out, e)
		}
	}
	return out
}

func fromLambdaRecord(record events.DynamoDBEventRecord) (Event, bool) {
	id := getStringAttr(record.Change.Keys, "id")
	if id == "" {
		return Event{}, false
	}

	switch record.EventName {
	case "INSERT":
		return Event{ID: id, Kind: Put}, true
	case "MODIFY":
		oldTTL := getNumberAttr(record.Change.OldImage, "ttl")
		newTTL := getNumberAttr(record.Change.NewImage, "ttl")
		if oldTTL == 0 && newTTL != 0 {
			return Event{ID: id, Kind: Delete}, true
		}
		return Event{ID: id, Kind: Put}, true
	case "REMOVE":
		return Event{ID: id, Kind: Delete}, true
	default:
		return Event{ID: id, Kind: Other}, true
	}
}

// getStringAttr extracts a string attribute from a DynamoDB stream image.
func getStringAttr(image map[string]events.DynamoDBAttributeValue, key string) string {
	if v, ok := image[key]; ok {
		if v.DataType() == events.DataTypeString {
			return v.String()
		}
	}
	return ""
}

// getNumberAttr extracts a number attribute from a DynamoDB stream image.
func getNumberAttr(image map[string]events.DynamoDBAttributeValue, key string) int64 {
	if v, ok := image[key]; ok {
		if v.DataType() == events.DataTypeNumber {
			n, _ := strconv.ParseInt(v.Number(), 10, 64)
			return n
		}
	}
	return 0
}
