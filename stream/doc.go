// Package stream supervises consumption of model-provider token streams.
//
// A Guard wraps an already-started stream and enforces two timers
// measured from stream start: a per-chunk gap above InterChunkTimeout is
// logged as a warning but tolerated, while elapsed time beyond
// MaxTotalDuration silently truncates the stream. Retry and circuit
// breaking (see the resilience package) apply only to obtaining the
// stream handle; once chunks are flowing they are not idempotent and the
// guard never restarts a stream.
//
//	guard := stream.NewGuard(stream.GuardConfig{
//	    InterChunkTimeout: 5 * time.Second,
//	    MaxTotalDuration:  45 * time.Second,
//	})
//
//	s := guard.Supervise(ctx, upstream, requestID)
//	for {
//	    chunk, err := s.Recv()
//	    if err == io.EOF {
//	        break
//	    }
//	    if err != nil {
//	        return err
//	    }
//	    send(chunk)
//	}
//
// Every supervised stream contributes exactly one record to a rolling
// metrics window, whichever way it ends; PerformanceStats summarizes the
// window into averages and an A-D grade for monitoring.
package stream
