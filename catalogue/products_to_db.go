package catalogue

import (
	"context"
	"fmt"
	"reflect"

	multierror "github.com/hashicorp/go-multierror"
	uuid "github.com/satori/go.uuid"
	"go.uber.org/zap"
	validator "gopkg.in/go-playground/validator.v9"

	oscarodin "github.com/samar-hassan/django-oscar-odin"
	"github.com/samar-hassan/django-oscar-odin/dbchange"
	"github.com/samar-hassan/django-oscar-odin/models"
	"github.com/samar-hassan/django-oscar-odin/reflectutil"
	"github.com/samar-hassan/django-oscar-odin/resources"
	"github.com/samar-hassan/django-oscar-odin/tags"
)

var (
	productType         = reflect.TypeOf(models.Product{})
	productCategoryType = reflect.TypeOf(models.ProductCategory{})
)

// Option configures ProductsToDB
type Option func(*options)

type options struct {
	identifiers    *oscarodin.Identifiers
	fieldsToUpdate []string
	logger         *zap.Logger
	runID          uuid.UUID
	clean          bool
}

// WithIdentifiers replaces DefaultIdentifiers
func WithIdentifiers(ids *oscarodin.Identifiers) Option {
	return func(o *options) {
		o.identifiers = ids
	}
}

// WithFieldsToUpdate limits the fields written to existing rows. Fields are
// model field or column names; each model only uses the names it has.
func WithFieldsToUpdate(fields ...string) Option {
	return func(o *options) {
		o.fieldsToUpdate = fields
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithRunID sets the RunID of the returned ChangeSet. The logger is then
// expected to carry it already, see WithLogger.
func WithRunID(id uuid.UUID) Option {
	return func(o *options) {
		o.runID = id
	}
}

// WithClean toggles validating the resources before anything is saved. On by
// default.
func WithClean(clean bool) Option {
	return func(o *options) {
		o.clean = clean
	}
}

/*
ProductsToDB saves product resources and their related records.

Related records are saved in dependency order: product classes, parents and
partners first, then the products, then images, stock records and attribute
values pointing at them, then categories and the links to them. Records whose
natural key matches an existing row update that row. Existing foreign key
targets and categories are only updated when fields to update are given.

Products sharing a UPC within the batch are saved to a single row, the last
one wins. So do their images, stock records and attribute values.

The batch runs in one transaction unless orm already has one open.
*/
func ProductsToDB(ctx context.Context, orm oscarodin.ORM, products []*resources.Product, opts ...Option) (saved []*models.Product, changes *dbchange.ChangeSet, err error) {
	o := &options{
		identifiers: DefaultIdentifiers(),
		logger:      zap.NewNop(),
		clean:       true,
	}
	for _, opt := range opts {
		opt(o)
	}

	changes = dbchange.New()
	logger := o.logger
	if o.runID != uuid.Nil {
		changes.RunID = o.runID
	} else {
		logger = logger.With(zap.String("run_id", changes.RunID.String()))
	}

	if o.clean {
		if err := CleanProducts(products); err != nil {
			return nil, changes, err
		}
	}

	classifier := oscarodin.NewClassifier(orm, o.identifiers, oscarodin.WithClassifierLogger(logger))
	mc := oscarodin.NewMapperContext(classifier)
	mc.SetFieldsToUpdate(o.fieldsToUpdate)

	instances, err := productToModel(mc).Apply(products)
	if err != nil {
		return nil, changes, err
	}

	if !orm.InTransaction() {
		if err := orm.Begin(ctx); err != nil {
			return nil, changes, err
		}
		defer func() {
			if err != nil {
				if rollbackErr := orm.Rollback(); rollbackErr != nil {
					err = multierror.Append(err, rollbackErr)
				}
				return
			}
			err = orm.Commit()
		}()
	}

	s := &saver{
		orm:        orm,
		classifier: classifier,
		mc:         mc,
		changes:    changes,
	}

	if err := s.saveForeignKeys(ctx); err != nil {
		return nil, changes, err
	}
	if err := s.saveProducts(ctx, instances); err != nil {
		return nil, changes, err
	}
	if err := s.bufferAttributeValues(ctx); err != nil {
		return nil, changes, err
	}
	if err := s.saveOneToMany(ctx); err != nil {
		return nil, changes, err
	}
	if err := s.saveManyToMany(ctx); err != nil {
		return nil, changes, err
	}

	for _, summary := range changes.Summary() {
		logger.Info("saved table",
			zap.String("table", summary.Table),
			zap.Int("inserted", summary.Inserted),
			zap.Int("updated", summary.Updated),
		)
	}
	return instances, changes, nil
}

// CleanProducts validates every resource and returns all failures together
func CleanProducts(products []*resources.Product) error {
	validate := validator.New()
	var result *multierror.Error
	for i, product := range products {
		if product == nil {
			result = multierror.Append(result, fmt.Errorf("product %d: missing", i))
			continue
		}
		if err := validate.Struct(product); err != nil {
			result = multierror.Append(result, fmt.Errorf("product %d (%s): %w", i, product.UPC, err))
		}
	}
	return result.ErrorOrNil()
}

type saver struct {
	orm        oscarodin.ORM
	classifier *oscarodin.Classifier
	mc         *oscarodin.MapperContext
	changes    *dbchange.ChangeSet
}

func (s *saver) insert(ctx context.Context, records []interface{}) error {
	if len(records) == 0 {
		return nil
	}
	if err := s.orm.Insert(ctx, records); err != nil {
		return err
	}
	s.record(dbchange.Insert, records)
	return nil
}

func (s *saver) update(ctx context.Context, records []interface{}, fields []string) error {
	if len(records) == 0 {
		return nil
	}
	if err := s.orm.Update(ctx, records, fields); err != nil {
		return err
	}
	s.record(dbchange.Update, records)
	return nil
}

func (s *saver) record(changeType dbchange.Type, records []interface{}) {
	for _, record := range records {
		table := tags.TableMetadataFromType(reflect.TypeOf(record)).GetTableName()
		s.changes.Add(changeType, table, oscarodin.PrimaryKey(record), record)
	}
}

// saveRelationSet inserts the new records of set and gives collapsed
// duplicates their ids. With updateExisting it then updates the existing
// records and writes the duplicates over their canonical rows in batch order,
// so the last record of a natural key wins.
func (s *saver) saveRelationSet(ctx context.Context, set oscarodin.RelationSet, updateExisting bool) error {
	if err := s.insert(ctx, set.Create); err != nil {
		return fmt.Errorf("saving %s: %w", set.Relation, err)
	}
	if err := set.SyncDuplicates(); err != nil {
		return err
	}
	if !updateExisting {
		return nil
	}

	updates := append(append([]interface{}{}, set.Update...), set.Duplicates()...)
	if err := s.update(ctx, updates, s.mc.FieldsToUpdate(set.Relation.Related)); err != nil {
		return fmt.Errorf("saving %s: %w", set.Relation, err)
	}
	return nil
}

func (s *saver) saveForeignKeys(ctx context.Context) error {
	sets, err := s.mc.ForeignKeyRelations(ctx)
	if err != nil {
		return err
	}
	for _, set := range sets {
		fields := s.mc.FieldsToUpdate(set.Relation.Related)
		if err := s.saveRelationSet(ctx, set, fields != nil); err != nil {
			return err
		}
	}
	return nil
}

func (s *saver) saveProducts(ctx context.Context, instances []*models.Product) error {
	for _, product := range instances {
		if err := attachForeignKeys(product); err != nil {
			return err
		}
	}

	create, update, err := oscarodin.ClassifyRecords(ctx, s.classifier, instances)
	if err != nil {
		return err
	}
	create, duplicates, err := s.collapse(create)
	if err != nil {
		return err
	}

	if err := s.insert(ctx, toInterfaces(create)); err != nil {
		return err
	}
	for duplicate, canonical := range duplicates {
		if err := oscarodin.SetPrimaryKey(duplicate, canonical.ID); err != nil {
			return err
		}
	}

	// duplicates follow in batch order so the last one is written last
	for _, product := range instances {
		if _, ok := duplicates[product]; ok {
			update = append(update, product)
		}
	}
	return s.update(ctx, toInterfaces(update), s.mc.FieldsToUpdate(productType))
}

// collapse keeps the first new product of every UPC for insertion and maps
// the others to it
func (s *saver) collapse(create []*models.Product) ([]*models.Product, map[*models.Product]*models.Product, error) {
	ids := s.classifier.Identifiers()
	canonical := map[oscarodin.Key]*models.Product{}
	duplicates := map[*models.Product]*models.Product{}
	unique := make([]*models.Product, 0, len(create))
	for _, product := range create {
		key, ok, err := ids.KeyOf(product)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			unique = append(unique, product)
			continue
		}
		if first, exists := canonical[key]; exists {
			duplicates[product] = first
			continue
		}
		canonical[key] = product
		unique = append(unique, product)
	}
	return unique, duplicates, nil
}

func (s *saver) saveOneToMany(ctx context.Context) error {
	for relation, association := range s.mc.OneToManyAssociations() {
		if err := attachToOwner(relation, association); err != nil {
			return err
		}
	}

	sets, err := s.mc.OneToManyRelations(ctx)
	if err != nil {
		return err
	}
	for _, set := range sets {
		if err := s.saveRelationSet(ctx, set, true); err != nil {
			return err
		}
	}
	return nil
}

func (s *saver) saveManyToMany(ctx context.Context) error {
	sets, err := s.mc.ManyToManyRelations(ctx)
	if err != nil {
		return err
	}
	for _, set := range sets {
		fields := s.mc.FieldsToUpdate(set.Relation.Related)
		if err := s.saveRelationSet(ctx, set, fields != nil); err != nil {
			return err
		}
	}

	var links []interface{}
	seen := map[oscarodin.Key]bool{}
	for relation, association := range s.mc.ManyToManyAssociations() {
		if relation != CategoriesRelation {
			continue
		}
		product := association.Owner.(*models.Product)
		for _, related := range association.Related {
			category := related.(*models.Category)
			key := oscarodin.NewKey(product.ID, category.ID)
			if seen[key] {
				continue
			}
			seen[key] = true
			links = append(links, &models.ProductCategory{
				ProductID:  product.ID,
				CategoryID: category.ID,
			})
		}
	}

	classification, err := s.classifier.Classify(ctx, productCategoryType, links)
	if err != nil {
		return err
	}
	return s.insert(ctx, classification.Create)
}

// attachForeignKeys copies the ids of saved related records into the
// foreign key fields of record
func attachForeignKeys(record interface{}) error {
	value, err := reflectutil.GetStructValue(record)
	if err != nil {
		return err
	}
	for _, foreignKey := range tags.TableMetadataFromType(value.Type()).GetForeignKeys() {
		if foreignKey.RelatedFieldName == "" {
			continue
		}
		related := value.FieldByName(foreignKey.RelatedFieldName)
		if related.Kind() != reflect.Ptr || related.IsNil() {
			continue
		}
		id := oscarodin.PrimaryKey(related.Interface())
		if id == nil {
			continue
		}
		if err := reflectutil.SetValue(value.FieldByName(foreignKey.FieldName), id); err != nil {
			return fmt.Errorf("setting %s.%s: %w", value.Type().Name(), foreignKey.FieldName, err)
		}
	}
	return nil
}

// attachToOwner points the related records of a one-to-many association at
// their saved owner
func attachToOwner(relation oscarodin.Relation, association oscarodin.Association) error {
	child := tags.TableMetadataFromType(relation.Owner).GetChildField(relation.Name)
	if child == nil || child.ForeignKey == "" {
		return fmt.Errorf("%s has no foreign key", relation)
	}
	ownerID := oscarodin.PrimaryKey(association.Owner)
	if ownerID == nil {
		return fmt.Errorf("%s: owner is not saved", relation)
	}
	for _, related := range association.Related {
		value, err := reflectutil.GetStructValue(related)
		if err != nil {
			return err
		}
		if err := reflectutil.SetValue(value.FieldByName(child.ForeignKey), ownerID); err != nil {
			return err
		}
		if err := attachForeignKeys(related); err != nil {
			return err
		}
	}
	return nil
}
