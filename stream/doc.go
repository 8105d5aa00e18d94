// Package stream feeds synthetic row batches into a grid at a fixed interval.
//
// A Source owns one goroutine while streaming. Every tick it synthesizes a
// batch of rows with fresh ids and hands it to the sink:
//
//	src := stream.New(engine.AddData,
//	    stream.WithInterval(time.Second),
//	    stream.WithBatchSize(10),
//	)
//	src.Start(ctx)
//	defer src.Close()
//
// Ids come from a counter that only ever grows, across Stop/Start cycles, so
// streamed rows never collide with each other.
package stream
