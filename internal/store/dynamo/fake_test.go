package dynamo

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const scanPageSize = 2

// fakeAPI is an in-memory DynamoDB that understands exactly the requests Store makes.
type fakeAPI struct {
	mu      sync.Mutex
	tables  map[string]map[string]map[string]types.AttributeValue
	queries int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{tables: map[string]map[string]map[string]types.AttributeValue{}}
}

func str(av types.AttributeValue) string {
	if s, ok := av.(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func keyOf(attrs map[string]types.AttributeValue) string {
	if q, ok := attrs["quote_id"]; ok {
		return str(q) + "|" + str(attrs["id"])
	}
	return str(attrs["id"])
}

func (f *fakeAPI) table(name string) map[string]map[string]types.AttributeValue {
	t, ok := f.tables[name]
	if !ok {
		t = map[string]map[string]types.AttributeValue{}
		f.tables[name] = t
	}
	return t
}

func copyItem(in map[string]types.AttributeValue) map[string]types.AttributeValue {
	out := make(map[string]types.AttributeValue, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (f *fakeAPI) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.table(aws.ToString(in.TableName))[keyOf(in.Key)]
	if !ok {
		return &dynamodb.GetItemOutput{}, nil
	}
	return &dynamodb.GetItemOutput{Item: copyItem(item)}, nil
}

func (f *fakeAPI) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := f.table(aws.ToString(in.TableName))
	key := keyOf(in.Item)
	if _, exists := t[key]; exists && aws.ToString(in.ConditionExpression) == "attribute_not_exists(#id)" {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("exists")}
	}
	t[key] = copyItem(in.Item)
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeAPI) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := f.table(aws.ToString(in.TableName))
	item, ok := t[keyOf(in.Key)]
	if !ok {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("missing")}
	}

	current := 0
	if n, ok := item["next_position"].(*types.AttributeValueMemberN); ok {
		current, _ = strconv.Atoi(n.Value)
	}
	next := &types.AttributeValueMemberN{Value: strconv.Itoa(current + 1)}
	item = copyItem(item)
	item["next_position"] = next
	t[keyOf(in.Key)] = item

	return &dynamodb.UpdateItemOutput{Attributes: map[string]types.AttributeValue{"next_position": next}}, nil
}

func (f *fakeAPI) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := f.table(aws.ToString(in.TableName))
	key := keyOf(in.Key)
	if _, ok := t[key]; !ok {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("missing")}
	}
	delete(t, key)
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *fakeAPI) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries++
	want := str(in.ExpressionAttributeValues[":quote_id"])
	var items []map[string]types.AttributeValue
	for _, item := range f.table(aws.ToString(in.TableName)) {
		if str(item["quote_id"]) == want {
			items = append(items, copyItem(item))
		}
	}
	return &dynamodb.QueryOutput{Items: items, Count: int32(len(items))}, nil
}

// Scan pages through the table in key order, scanPageSize items at a time.
func (f *fakeAPI) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := f.table(aws.ToString(in.TableName))

	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	start := 0
	if in.ExclusiveStartKey != nil {
		after := keyOf(in.ExclusiveStartKey)
		start = sort.SearchStrings(keys, after) + 1
	}

	out := &dynamodb.ScanOutput{}
	for i := start; i < len(keys) && len(out.Items) < scanPageSize; i++ {
		out.Items = append(out.Items, copyItem(t[keys[i]]))
	}
	out.Count = int32(len(out.Items))
	if end := start + len(out.Items); end < len(keys) {
		out.LastEvaluatedKey = map[string]types.AttributeValue{"id": t[keys[end-1]]["id"]}
	}
	return out, nil
}

func (f *fakeAPI) CreateTable(_ context.Context, in *dynamodb.CreateTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name := aws.ToString(in.TableName)
	if _, ok := f.tables[name]; ok {
		return nil, &types.ResourceInUseException{Message: aws.String("exists")}
	}
	f.tables[name] = map[string]map[string]types.AttributeValue{}
	return &dynamodb.CreateTableOutput{}, nil
}
