package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"call-duration-analyzer/internal/domain"
)

const (
	attrPayload    = "payload"
	attrReceivedAt = "received_at"
)

// dynamodbAPI is the minimal DynamoDB interface required by DynamoSource.
// Defined here for testability.
type dynamodbAPI interface {
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// DynamoSource reads webhook dumps from a DynamoDB table. Items carry the
// payload under "payload" and "received_at" as a UTC RFC 3339 string ("Z" or
// "+00:00" suffix, optional fractional seconds). Values in other zones are
// compared as text by the scan filter and may land on the wrong side of the
// window start.
type DynamoSource struct {
	api       dynamodbAPI
	tableName string
	pageSize  int
	onPage    PageFunc
}

// NewDynamoSource creates a DynamoSource scanning tableName.
func NewDynamoSource(api dynamodbAPI, tableName string, pageSize int, opts ...Option) (*DynamoSource, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	o := applyOptions(opts)
	return &DynamoSource{
		api:       api,
		tableName: tableName,
		pageSize:  normalizePageSize(pageSize),
		onPage:    o.onPage,
	}, nil
}

// Fetch scans the table for items received at or after since. Scan order is
// the table's; pages are followed through LastEvaluatedKey.
//
// The scan filter compares against the zone-less second prefix of since, which
// sorts at or below every UTC spelling of the same instant; items that still
// fall before since are dropped once their timestamp is parsed.
func (s *DynamoSource) Fetch(ctx context.Context, since time.Time, fn func(domain.RawRecord) error) error {
	since = since.UTC()
	var (
		startKey  map[string]types.AttributeValue
		delivered int
		page      int
	)
	for {
		out, err := s.api.Scan(ctx, &dynamodb.ScanInput{
			TableName:                aws.String(s.tableName),
			FilterExpression:         aws.String("#received >= :since"),
			ExpressionAttributeNames: map[string]string{"#received": attrReceivedAt},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":since": &types.AttributeValueMemberS{Value: sincePrefix(since)},
			},
			Limit:             aws.Int32(int32(s.pageSize)),
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return fmt.Errorf("repository: Scan page %d: %w", page+1, err)
		}
		page++

		for _, item := range out.Items {
			rec, err := itemToRecord(item)
			if err != nil {
				slog.Warn("repository: unreadable payload, passing it on empty", "page", page, "err", err)
			}
			if !rec.ReceivedAt.IsZero() && rec.ReceivedAt.Before(since) {
				continue
			}
			if err := fn(rec); err != nil {
				return err
			}
			delivered++
		}
		if s.onPage != nil {
			s.onPage(page, delivered)
		}

		if len(out.LastEvaluatedKey) == 0 {
			return nil
		}
		startKey = out.LastEvaluatedKey
	}
}

func sincePrefix(since time.Time) string {
	return since.UTC().Truncate(time.Second).Format("2006-01-02T15:04:05")
}

// itemToRecord converts a DynamoDB attribute map to a RawRecord. A missing or
// unconvertible payload is left nil for the decoder to reject; the error is
// returned alongside the record so callers can report it.
func itemToRecord(item map[string]types.AttributeValue) (domain.RawRecord, error) {
	var rec domain.RawRecord
	if v, ok := item[attrReceivedAt].(*types.AttributeValueMemberS); ok {
		rec.ReceivedAt = parseTime(v.Value)
	}
	if v, ok := item[attrPayload]; ok {
		p, err := attrToAny(v)
		if err != nil {
			return rec, fmt.Errorf("attribute %q: %w", attrPayload, err)
		}
		rec.Payload = p
	}
	return rec, nil
}

// attrToAny maps an attribute value onto the shapes JSON decoding produces.
func attrToAny(v types.AttributeValue) (any, error) {
	switch t := v.(type) {
	case *types.AttributeValueMemberS:
		return t.Value, nil
	case *types.AttributeValueMemberN:
		return json.Number(t.Value), nil
	case *types.AttributeValueMemberBOOL:
		return t.Value, nil
	case *types.AttributeValueMemberNULL:
		return nil, nil
	case *types.AttributeValueMemberB:
		return string(t.Value), nil
	case *types.AttributeValueMemberSS:
		l := make([]any, 0, len(t.Value))
		for _, v := range t.Value {
			l = append(l, v)
		}
		return l, nil
	case *types.AttributeValueMemberNS:
		l := make([]any, 0, len(t.Value))
		for _, v := range t.Value {
			l = append(l, json.Number(v))
		}
		return l, nil
	case *types.AttributeValueMemberBS:
		l := make([]any, 0, len(t.Value))
		for _, v := range t.Value {
			l = append(l, string(v))
		}
		return l, nil
	case *types.AttributeValueMemberM:
		m := make(map[string]any, len(t.Value))
		for k, av := range t.Value {
			conv, err := attrToAny(av)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			m[k] = conv
		}
		return m, nil
	case *types.AttributeValueMemberL:
		l := make([]any, 0, len(t.Value))
		for i, av := range t.Value {
			conv, err := attrToAny(av)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			l = append(l, conv)
		}
		return l, nil
	default:
		return nil, fmt.Errorf("unsupported attribute type %T", v)
	}
}
