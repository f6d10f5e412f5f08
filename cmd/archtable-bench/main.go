// Command archtable-bench drives the table engine's hot paths (append,
// move, delete) under github.com/pkg/profile so their allocation and CPU
// behaviour can be inspected with pprof.
//
// go build ./cmd/archtable-bench
// go tool pprof -http=":8000" ./archtable-bench cpu.pprof
package main

import (
	"flag"
	"unsafe"

	"github.com/archtable/archtable"
	"github.com/pkg/profile"
)

type position struct {
	X, Y float64
}

type velocity struct {
	DX, DY float64
}

func main() {
	mode := flag.String("mode", "cpu", "profile mode: cpu or mem")
	rounds := flag.Int("rounds", 20, "benchmark rounds")
	entities := flag.Int("entities", 5000, "entities per round")
	flag.Parse()

	var opt func(*profile.Profile)
	if *mode == "mem" {
		opt = profile.MemProfileAllocs
	} else {
		opt = profile.CPUProfile
	}

	p := profile.Start(opt, profile.ProfilePath("."), profile.NoShutdownHook)
	run(*rounds, *entities)
	p.Stop()
}

func run(rounds, numEntities int) {
	posID := archtable.Id(100)
	velID := archtable.Id(101)

	posTI := &archtable.TypeInfo{
		Size:      int32(unsafe.Sizeof(position{})),
		Alignment: int32(unsafe.Alignof(position{})),
	}
	velTI := &archtable.TypeInfo{
		Size:      int32(unsafe.Sizeof(velocity{})),
		Alignment: int32(unsafe.Alignof(velocity{})),
	}

	for r := 0; r < rounds; r++ {
		world := archtable.NewWorld()
		engine := archtable.NewEngine(world)
		world.RegisterTypeInfo(posID, posTI)
		world.RegisterTypeInfo(velID, velTI)

		posOnly, _ := engine.Init(archtable.NewType(posID))
		moving, _ := engine.Init(archtable.NewType(posID, velID))

		for i := 0; i < numEntities; i++ {
			e := archtable.Entity(i + 1)
			record := &archtable.Record{}
			row, _ := engine.Append(posOnly, e, record, true, false)
			record.Table = posOnly
			record.Row = archtable.RowToRecord(row, 0)
			world.SetEntityRecord(e, record)
		}

		for i := 0; i < numEntities; i++ {
			e := archtable.Entity(i + 1)
			record := world.GetEntityRecord(e)
			srcRow := archtable.RecordToRow(record.Row)

			dstRow, _ := engine.Append(moving, e, &archtable.Record{}, false, false)
			_ = engine.Move(e, e, moving, dstRow, posOnly, srcRow, true)
			engine.Delete(posOnly, srcRow, false)

			record.Table = moving
			record.Row = archtable.RowToRecord(dstRow, 0)
		}

		_ = engine.Free(posOnly)
		_ = engine.Free(moving)
	}
}
