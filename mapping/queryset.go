package mapping

import (
	"context"
	"fmt"
	"reflect"

	oscarodin "github.com/samar-hassan/django-oscar-odin"
)

// MapQueryset loads the rows selected by request and maps them. The filter
// model must be of the mapping's source type; a nil filter model selects
// every row.
func MapQueryset[S, T any](ctx context.Context, orm oscarodin.ORM, m *Mapping[S, T], request oscarodin.FilterRequest) ([]*T, error) {
	if request.FilterModel != nil {
		modelType := reflect.TypeOf(request.FilterModel)
		for modelType.Kind() == reflect.Ptr {
			modelType = modelType.Elem()
		}
		if modelType != m.FromType() {
			return nil, fmt.Errorf("mapping from %s cannot map rows of %s", m.FromType().Name(), modelType.Name())
		}
	}

	sources, err := oscarodin.FilterModels[S](ctx, orm, request)
	if err != nil {
		return nil, err
	}
	return m.Apply(sources)
}
