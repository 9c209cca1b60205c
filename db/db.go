// Package db looks up bibliographic metadata for named corpus exercises
// (e.g. "fux-cf-1") from DynamoDB: a batch-get keyed by exercise ID,
// translated from dynamodb.AttributeValue into a plain struct.
package db

import (
	"strconv"

	"github.com/snarrenberg/westerlines/constants"
	"github.com/snarrenberg/westerlines/model"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/pkg/errors"
)

// Lookup batch-gets metadata for up to 10 exercise IDs at once, keeping
// each request well under DynamoDB's BatchGetItem limits.
func Lookup(exerciseIDs []string) (map[string]model.CorpusExerciseMetadata, error) {
	if len(exerciseIDs) > 10 {
		panic("db: not supposed to pass in more than 10 exercise IDs")
	}

	res := make(map[string]model.CorpusExerciseMetadata)
	if len(exerciseIDs) == 0 {
		return res, nil
	}

	var keys []map[string]*dynamodb.AttributeValue
	for _, id := range exerciseIDs {
		keys = append(keys, map[string]*dynamodb.AttributeValue{
			"PK": {S: aws.String(id)},
		})
	}

	endpoint := constants.GetCorpusEndpoint()
	sess, err := session.NewSession(&aws.Config{
		Region:   aws.String("localhost"),
		Endpoint: &endpoint,
	})
	if err != nil {
		return nil, errors.Wrap(err, "db: creating session")
	}

	client := dynamodb.New(sess)
	table := constants.GetCorpusTable()
	input := &dynamodb.BatchGetItemInput{
		RequestItems: map[string]*dynamodb.KeysAndAttributes{
			table: {Keys: keys},
		},
	}
	dbres, err := client.BatchGetItem(input)
	if err != nil {
		return nil, errors.Wrapf(err, "db: batch-getting %d exercise IDs from %s", len(exerciseIDs), table)
	}

	for _, v := range dbres.Responses[table] {
		var m model.CorpusExerciseMetadata
		if v["Year"] != nil && v["Year"].N != nil {
			year, _ := strconv.ParseUint(*v["Year"].N, 10, 32)
			m.Year = uint(year)
		}
		if v["Source"] != nil && v["Source"].S != nil {
			m.Source = *v["Source"].S
		}
		if v["Title"] != nil && v["Title"].S != nil {
			m.Title = *v["Title"].S
		}
		res[*v["PK"].S] = m
	}

	return res, nil
}
