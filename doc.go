// Package snap2print turns photos and scans of printed pages into editable
// HTML replicas with a generative model, and exports them as printable
// HTML, Word-compatible documents, PDF or Markdown.
//
// # Quick Start
//
// Queue images, process them, then export:
//
//	gen, err := snap2print.NewGeminiGenerator(ctx, snap2print.GeminiConfig{}, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	q := snap2print.NewQueue()
//	img, err := snap2print.PrepareImage(photo, 0, 0)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	q.Add("page1.jpg", img.Data, img.MIMEType)
//
//	p := snap2print.NewProcessor(q, gen)
//	if _, err := p.ProcessAll(ctx); err != nil {
//	    log.Print(err) // failed jobs stay in ERROR and can be retried
//	}
//
//	exp, err := snap2print.NewExporter(snap2print.WithPageSettings(&snap2print.PageSettings{
//	    Size: "letter", Orientation: "portrait", Margin: 0.5,
//	}))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer exp.Close()
//
//	pdf, err := exp.Export(ctx, snap2print.DocumentFromQueue(q), snap2print.FormatPDF)
//
// # Job Lifecycle
//
// Each queued image is a Job moving through
//
//	IDLE → PROCESSING → COMPLETED | ERROR
//
// ERROR jobs return to PROCESSING on retry and COMPLETED jobs on remix.
// Only COMPLETED jobs are exported.
//
// # Processing
//
// Processor runs jobs one at a time with a pause between requests
// (WithDelay) or several at once (WithParallel). A failing job is marked
// ERROR and never stops the batch.
//
// # Remix and Answer Keys
//
// Remix regenerates a page with new questions in the same layout. Solve
// produces an answer key from a page's HTML; WithSolutions controls whether
// keys are appended to the export or exported alone.
//
// # Parallel PDF Rendering
//
// RendererPool holds several Exporters, each with its own browser:
//
//	pool, err := snap2print.NewRendererPool(4)
//	exp, err := pool.Acquire()
//	defer pool.Release(exp)
package snap2print
