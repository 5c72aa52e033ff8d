package metadata

import (
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/jsphweid/progdex/config"
	"github.com/jsphweid/progdex/model"
	"github.com/stretchr/testify/assert"
)

type fakeDynamo struct {
	dynamodbiface.DynamoDBAPI
	items []map[string]*dynamodb.AttributeValue
	err   error
	input *dynamodb.BatchGetItemInput
	calls int
	// held is how many calls in a row leave their last key unprocessed.
	held int
}

func (f *fakeDynamo) BatchGetItem(in *dynamodb.BatchGetItemInput) (*dynamodb.BatchGetItemOutput, error) {
	f.input = in
	f.calls++
	if f.err != nil {
		return nil, f.err
	}

	wanted := make(map[string]bool)
	keys := in.RequestItems["pieces"].Keys
	out := &dynamodb.BatchGetItemOutput{}
	if f.calls <= f.held {
		out.UnprocessedKeys = map[string]*dynamodb.KeysAndAttributes{
			"pieces": {Keys: keys[len(keys)-1:]},
		}
		keys = keys[:len(keys)-1]
	}
	for _, k := range keys {
		wanted[*k["PK"].S] = true
	}
	var items []map[string]*dynamodb.AttributeValue
	for _, item := range f.items {
		if wanted[*item["PK"].S] {
			items = append(items, item)
		}
	}
	out.Responses = map[string][]map[string]*dynamodb.AttributeValue{"pieces": items}
	return out, nil
}

func piece(pk, title string) map[string]*dynamodb.AttributeValue {
	return map[string]*dynamodb.AttributeValue{
		"PK":    {S: aws.String(pk)},
		"Title": {S: aws.String(title)},
	}
}

func TestLookup(t *testing.T) {
	fake := &fakeDynamo{items: []map[string]*dynamodb.AttributeValue{{
		"PK":      {S: aws.String("autumn_leaves.mid")},
		"Title":   {S: aws.String("Autumn Leaves")},
		"Artist":  {S: aws.String("Joseph Kosma")},
		"Release": {S: aws.String("Les Feuilles mortes")},
		"Year":    {N: aws.String("1945")},
	}}}
	c := New(fake, "pieces")

	res, err := c.Lookup([]string{"autumn_leaves.mid", "unknown.mid"})
	assert := assert.New(t)
	assert.NoError(err)
	assert.Equal(map[string]model.PieceMetadata{
		"autumn_leaves.mid": {Title: "Autumn Leaves", Artist: "Joseph Kosma", Release: "Les Feuilles mortes", Year: 1945},
	}, res)
	assert.Len(fake.input.RequestItems["pieces"].Keys, 2)

	m, ok, err := c.LookupOne("unknown.mid")
	assert.NoError(err)
	assert.False(ok)
	assert.Nil(m)
}

func TestLookupLimitsAndErrors(t *testing.T) {
	c := New(&fakeDynamo{err: errors.New("throttled")}, "pieces")

	assert := assert.New(t)
	_, err := c.Lookup(make([]string, MaxBatch+1))
	assert.Error(err)

	_, err = c.Lookup([]string{"a.mid"})
	assert.Error(err)

	res, err := c.Lookup(nil)
	assert.NoError(err)
	assert.Empty(res)
}

func TestLookupRetriesUnprocessedKeys(t *testing.T) {
	fake := &fakeDynamo{
		items: []map[string]*dynamodb.AttributeValue{piece("solar.mid", "Solar"), piece("blue_bossa.mid", "Blue Bossa")},
		held:  MaxAttempts - 1,
	}
	c := New(fake, "pieces")
	c.retryDelay = 0

	res, err := c.Lookup([]string{"solar.mid", "blue_bossa.mid"})

	assert := assert.New(t)
	assert.NoError(err)
	assert.Equal(MaxAttempts, fake.calls)
	assert.Equal(map[string]model.PieceMetadata{
		"solar.mid":      {Title: "Solar"},
		"blue_bossa.mid": {Title: "Blue Bossa"},
	}, res)
	assert.Len(fake.input.RequestItems["pieces"].Keys, 1)
}

func TestLookupGivesUpOnUnprocessedKeys(t *testing.T) {
	fake := &fakeDynamo{items: []map[string]*dynamodb.AttributeValue{piece("solar.mid", "Solar")}, held: MaxAttempts}
	c := New(fake, "pieces")
	c.retryDelay = 0

	_, err := c.Lookup([]string{"solar.mid"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unprocessed")
	assert.Equal(t, MaxAttempts, fake.calls)
}

func TestLookupSendsEachFilenameOnce(t *testing.T) {
	fake := &fakeDynamo{items: []map[string]*dynamodb.AttributeValue{piece("solar.mid", "Solar")}}
	c := New(fake, "pieces")

	names := []string{"solar.mid", "solar.mid"}
	for i := 0; i < MaxBatch; i++ {
		names = append(names, "solar.mid")
	}
	res, err := c.Lookup(names)

	assert := assert.New(t)
	assert.NoError(err)
	assert.Len(fake.input.RequestItems["pieces"].Keys, 1)
	assert.Equal(map[string]model.PieceMetadata{"solar.mid": {Title: "Solar"}}, res)
}

func TestFromItemToleratesMissingAttributes(t *testing.T) {
	m := fromItem(map[string]*dynamodb.AttributeValue{"Title": {S: aws.String("Solar")}, "Year": {N: aws.String("n/a")}})
	assert.Equal(t, model.PieceMetadata{Title: "Solar"}, m)
}

func TestFromConfigDisabled(t *testing.T) {
	c, err := FromConfig(config.Metadata{})
	assert.NoError(t, err)
	assert.Nil(t, c)
}
