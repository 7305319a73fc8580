package middlewares

import (
	"context"
	"reflect"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/graph-gophers/dataloader/v7"
	"github.com/salepilot/salepilot_backend/config"
	"github.com/salepilot/salepilot_backend/models"
	"gorm.io/gorm"
)

type ctxKey string

const (
	loadersKey = ctxKey("dataloaders")
)

// Loaders wrap the request-scoped batch loaders
type Loaders struct {
	customerLoader      *dataloader.Loader[int, *models.Customer]
	paymentMethodLoader *dataloader.Loader[int, *models.PaymentMethod]
	salePaymentsLoader  *dataloader.Loader[int, []*models.Payment]
	documentLoaders     map[string]*dataloader.Loader[int, []*models.Document]
}

func NewLoaders(conn *gorm.DB) *Loaders {
	customerReader := &customerReader{db: conn}
	paymentMethodReader := &paymentMethodReader{db: conn}
	salePaymentsReader := &salePaymentsReader{db: conn}

	saleDocumentReader := &documentReader{db: conn, referenceType: "sales"}
	paymentDocumentReader := &documentReader{db: conn, referenceType: "payments"}
	customerDocumentReader := &documentReader{db: conn, referenceType: "customers"}

	return &Loaders{
		customerLoader:      dataloader.NewBatchedLoader(customerReader.getCustomers, dataloader.WithWait[int, *models.Customer](time.Millisecond)),
		paymentMethodLoader: dataloader.NewBatchedLoader(paymentMethodReader.getPaymentMethods, dataloader.WithWait[int, *models.PaymentMethod](time.Millisecond)),
		salePaymentsLoader:  dataloader.NewBatchedLoader(salePaymentsReader.getPayments, dataloader.WithWait[int, []*models.Payment](time.Millisecond)),
		documentLoaders: map[string]*dataloader.Loader[int, []*models.Document]{
			"sales":     dataloader.NewBatchedLoader(saleDocumentReader.getDocuments, dataloader.WithWait[int, []*models.Document](time.Millisecond)),
			"payments":  dataloader.NewBatchedLoader(paymentDocumentReader.getDocuments, dataloader.WithWait[int, []*models.Document](time.Millisecond)),
			"customers": dataloader.NewBatchedLoader(customerDocumentReader.getDocuments, dataloader.WithWait[int, []*models.Document](time.Millisecond)),
		},
	}
}

func LoaderMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		loader := NewLoaders(config.GetDB())
		ctx := context.WithValue(c.Request.Context(), loadersKey, loader)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func For(ctx context.Context) *Loaders {
	return ctx.Value(loadersKey).(*Loaders)
}

// handleError creates array of result with the same error repeated for as many items requested
func handleError[T any](itemsLength int, err error) []*dataloader.Result[T] {
	result := make([]*dataloader.Result[T], itemsLength)
	for i := 0; i < itemsLength; i++ {
		result[i] = &dataloader.Result[T]{Error: err}
	}
	return result
}

// turns results from db into dataloader results
// (T must be a struct)
func generateLoaderResults[T models.Data](results []T, ids []int) []*dataloader.Result[*T] {
	resultMap := make(map[int]T)
	var resultZero T
	resultMap[0] = resultZero.GetDefault(0).(T)
	for _, result := range results {
		resultMap[result.GetId()] = result
	}

	loaderResults := make([]*dataloader.Result[*T], 0, len(ids))
	for _, id := range ids {
		data := resultMap[id]
		if reflect.ValueOf(data).IsZero() {
			data = data.GetDefault(id).(T)
		}
		loaderResults = append(loaderResults, &dataloader.Result[*T]{Data: &data})
	}
	return loaderResults
}

// T must be struct
// each id has many related results
func generateLoaderArrayResults[T models.RelatedData](results []T, referenceIds []int) []*dataloader.Result[[]*T] {
	resultMap := make(map[int][]*T)
	for _, result := range results {
		r := result
		resultMap[r.GetReferenceId()] = append(resultMap[r.GetReferenceId()], &r)
	}

	loaderResults := make([]*dataloader.Result[[]*T], 0, len(referenceIds))
	for _, id := range referenceIds {
		loaderResults = append(loaderResults, &dataloader.Result[[]*T]{Data: resultMap[id]})
	}
	return loaderResults
}
