package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopmate/shopmate/internal/models"
	"github.com/sirupsen/logrus"
)

// ErrProductNotFound is returned when no product exists for an id.
var ErrProductNotFound = errors.New("product not found")

type ProductRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *logrus.Logger
}

func NewProductRepository(client *dynamodb.Client, tableName string, logger *logrus.Logger) *ProductRepository {
	return &ProductRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

func (r *ProductRepository) Create(ctx context.Context, product *models.Product) error {
	item, err := attributevalue.MarshalMap(product)
	if err != nil {
		r.logger.WithError(err).Error("Failed to marshal product for DynamoDB")
		return fmt.Errorf("failed to marshal product: %w", err)
	}

	item["PK"] = &types.AttributeValueMemberS{Value: product.GetPK()}
	item["SK"] = &types.AttributeValueMemberS{Value: product.GetSK()}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})

	if err != nil {
		r.logger.WithError(err).Error("Failed to create product in DynamoDB")
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

func (r *ProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	product := &models.Product{ID: id}

	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: product.GetPK()},
			"SK": &types.AttributeValueMemberS{Value: product.GetSK()},
		},
	})

	if err != nil {
		r.logger.WithError(err).Error("Failed to get product from DynamoDB")
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	if result.Item == nil {
		return nil, ErrProductNotFound
	}

	var dbProduct models.Product
	if err := attributevalue.UnmarshalMap(result.Item, &dbProduct); err != nil {
		return nil, fmt.Errorf("failed to unmarshal product: %w", err)
	}

	return &dbProduct, nil
}

// Save overwrites the product item in place.
func (r *ProductRepository) Save(ctx context.Context, product *models.Product) error {
	item, err := attributevalue.MarshalMap(product)
	if err != nil {
		return fmt.Errorf("failed to marshal product: %w", err)
	}

	item["PK"] = &types.AttributeValueMemberS{Value: product.GetPK()}
	item["SK"] = &types.AttributeValueMemberS{Value: product.GetSK()}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})

	if err != nil {
		r.logger.WithError(err).Error("Failed to save product in DynamoDB")
		return fmt.Errorf("failed to save product: %w", err)
	}

	return nil
}

func (r *ProductRepository) List(ctx context.Context) ([]models.Product, error) {
	result, err := r.client.Scan(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(r.tableName),
		FilterExpression: aws.String("begins_with(PK, :pk_prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk_prefix": &types.AttributeValueMemberS{Value: "PRODUCT#"},
		},
	})

	if err != nil {
		r.logger.WithError(err).Error("Failed to scan products")
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	var products []models.Product
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &products); err != nil {
		return nil, fmt.Errorf("failed to unmarshal products: %w", err)
	}

	return products, nil
}
