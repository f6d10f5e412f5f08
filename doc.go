/*
Package archtable implements the archetype table storage engine of an
Entity-Component-System: table creation and teardown, the column storage
that backs a table, registration of tables into id-indexed lookup caches,
and the row-level operations (append, delete, move, swap, merge, shrink)
together with the hook protocol that fires constructors, destructors,
on-add and on-remove notifications.

Entities that carry the same set of ids live together in one Table, whose
component data is laid out as parallel Columns. Moving an entity between
tables - not a per-entity allocation - is how components get added or
removed.

Basic Usage:

	world := archtable.NewWorld()
	engine := archtable.NewEngine(world)

	posID := archtable.Id(100)
	world.RegisterTypeInfo(posID, positionTypeInfo)

	tbl, err := engine.Init(archtable.NewType(posID))
	row, err := engine.Append(tbl, entity, record, true, true)

Queries, observers, the entity index, and the id-record dictionary are
owned by the surrounding world; this package only implements the table
subsystem and the narrow collaborator contracts (World) it needs to be
exercised on its own.
*/
package archtable
