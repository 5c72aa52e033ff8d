package metadata

import (
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/jsphweid/progdex/config"
	"github.com/jsphweid/progdex/model"
	"github.com/pkg/errors"
)

// MaxBatch is the most filenames one Lookup call accepts.
const MaxBatch = 10

// MaxAttempts bounds the BatchGetItem calls one Lookup makes while DynamoDB
// keeps returning unprocessed keys.
const MaxAttempts = 3

// Client looks up piece metadata keyed by source filename (attribute "PK").
type Client struct {
	api        dynamodbiface.DynamoDBAPI
	table      string
	retryDelay time.Duration
}

func New(api dynamodbiface.DynamoDBAPI, table string) *Client {
	return &Client{api: api, table: table, retryDelay: 50 * time.Millisecond}
}

// FromConfig returns nil, nil when no table is configured.
func FromConfig(cfg config.Metadata) (*Client, error) {
	if cfg.Table == "" {
		return nil, nil
	}
	awsCfg := &aws.Config{Region: aws.String(cfg.Region)}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, errors.Wrap(err, "creating dynamodb session")
	}
	return New(dynamodb.New(sess), cfg.Table), nil
}

func str(av *dynamodb.AttributeValue) string {
	if av == nil || av.S == nil {
		return ""
	}
	return *av.S
}

func fromItem(item map[string]*dynamodb.AttributeValue) model.PieceMetadata {
	var m model.PieceMetadata
	if year := item["Year"]; year != nil && year.N != nil {
		if y, err := strconv.ParseUint(*year.N, 10, 32); err == nil {
			m.Year = uint(y)
		}
	}
	m.Artist = str(item["Artist"])
	m.Release = str(item["Release"])
	m.Title = str(item["Title"])
	return m
}

// Lookup fetches metadata for up to MaxBatch distinct filenames. Files
// without an entry are absent from the result. Keys DynamoDB leaves
// unprocessed are requested again, up to MaxAttempts calls in total.
func (c *Client) Lookup(filenames []string) (map[string]model.PieceMetadata, error) {
	seen := make(map[string]bool)
	var keys []map[string]*dynamodb.AttributeValue
	for _, filename := range filenames {
		if seen[filename] {
			continue
		}
		seen[filename] = true
		keys = append(keys, map[string]*dynamodb.AttributeValue{
			"PK": {S: aws.String(filename)},
		})
	}
	if len(keys) > MaxBatch {
		return nil, errors.Errorf("at most %d filenames per lookup, got %d", MaxBatch, len(keys))
	}

	res := make(map[string]model.PieceMetadata)
	if len(keys) == 0 {
		return res, nil
	}

	request := map[string]*dynamodb.KeysAndAttributes{
		c.table: {Keys: keys},
	}
	for attempt := 1; ; attempt++ {
		out, err := c.api.BatchGetItem(&dynamodb.BatchGetItemInput{RequestItems: request})
		if err != nil {
			return nil, errors.Wrap(err, "dynamodb batch get")
		}

		for _, item := range out.Responses[c.table] {
			pk := str(item["PK"])
			if pk == "" {
				continue
			}
			res[pk] = fromItem(item)
		}

		left := out.UnprocessedKeys[c.table]
		if left == nil || len(left.Keys) == 0 {
			return res, nil
		}
		if attempt == MaxAttempts {
			return nil, errors.Errorf("%d of %d keys still unprocessed after %d attempts", len(left.Keys), len(keys), attempt)
		}
		time.Sleep(c.retryDelay << (attempt - 1))
		request = map[string]*dynamodb.KeysAndAttributes{c.table: left}
	}
}

// LookupOne is Lookup for a single file.
func (c *Client) LookupOne(filename string) (*model.PieceMetadata, bool, error) {
	res, err := c.Lookup([]string{filename})
	if err != nil {
		return nil, false, err
	}
	m, ok := res[filename]
	if !ok {
		return nil, false, nil
	}
	return &m, true, nil
}
