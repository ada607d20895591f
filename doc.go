/*
Package oscarodin converts between e-commerce catalogue rows stored in a
relational database and plain resource structs used for data interchange.

Usage:

* Map resources to models and back with declared field rules
* Classify a batch of records into creates and updates by natural key
* Buffer related records until their owners are saved
* Bulk insert, update and filter models tagged with oscar struct tags

Initialization:

Create a connection to your database. Postgres and MySQL are supported.

	err := oscarodin.NewConnection(oscarodin.ConnectionProps{
		Driver:     "postgres",
		ConnString: "postgres://localhost:5432/oscar?sslmode=disable",
	})

Then create an ORM. It runs on that connection unless WithDB is given, and
speaks postgres unless WithDialect is given.

	orm := oscarodin.New(oscarodin.WithLogger(logger))

You can close the connection with `oscarodin.CloseConnection`

Transactions:

Every statement runs on its own unless a transaction was started with
Begin. A started transaction is completed with Commit or aborted with
Rollback; the ORM never commits one for you.

Model Mapping via Structs:

Models are structs whose tagged fields are table columns.

	type Product struct {
		Metadata       metadata.Metadata `oscar:"tablename=catalogue_product"`
		ID             int64             `oscar:"primary_key,column=id"`
		UPC            string            `oscar:"lookup,column=upc"`
		ProductClassID *int64            `oscar:"foreign_key,related=ProductClass,column=product_class_id"`
		DateUpdated    time.Time         `oscar:"column=date_updated,audit=updated_at"`

		ProductClass *ProductClass
		Images       []*ProductImage `oscar:"child,foreign_key=ProductID"`
	}

	tablename:

		Set on the metadata.Metadata field, names the table.

	column:

		Names the column of the field. Fields without a column are not stored.

	primary_key:

		Marks the generated primary key column.

	lookup:

		Marks the columns of the natural key. IdentifiersFromTags reads them.

	foreign_key, related:

		Marks a column holding the id of a related row. related names the
		field holding the related struct.

	child:

		Marks a slice of related structs pointing back at this one through
		the field named by foreign_key.

	audit:

		created_at is set on insert, updated_at on every write.

Natural keys:

Which columns identify an existing row is configured per model, with an
accessor bound for every column.

	ids := oscarodin.NewIdentifiers()
	oscarodin.Register(ids,
		oscarodin.Column("upc", func(p *Product) interface{} { return p.UPC }),
	)

Classify:

A Classifier looks up a batch of records by natural key in one query and
splits them. Records that exist get their primary key and are marked
persisted, so saving them updates their row.

	classifier := oscarodin.NewClassifier(orm, ids)
	create, update, err := oscarodin.ClassifyRecords(ctx, classifier, products)

Models without a natural key are always created.

MapperContext:

While a batch of owners is mapped, related records are buffered per
relation. Once the owners are saved the buffers are classified and saved
in turn; records sharing a natural key are saved once.

	mc := oscarodin.NewMapperContext(classifier)
	mc.AddForeignKey(productClassRelation, class)
	mc.AddOneToMany(imagesRelation, product, images)

	sets, err := mc.OneToManyRelations(ctx)

Filter:

FilterModel selects the rows equal to the non-zero column fields of the
filter model, and to the optional field filters.

	results, err := orm.FilterModel(ctx, oscarodin.FilterRequest{
		FilterModel: &Product{UPC: "A1"},
		Associations: []string{"Images"},
	})

A slice filter value selects rows matching any of its values.

Error types:

	ModelNotFoundError is returned when a model to update has no row.
	QueryError wraps database failures with the statement that failed.
*/
package oscarodin // import "github.com/samar-hassan/django-oscar-odin"
