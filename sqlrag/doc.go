// Package sqlrag answers natural language questions over a SQLite database.
//
// A Pipeline introspects the schema, asks the model to write a SQL query,
// runs it, and has the model phrase the result as an answer. SQL generation
// and execution are delegated to the langchaingo SQL database chain.
//
//	db, err := sqlrag.Open(ctx, "bank.db")
//	if err != nil {
//		return err
//	}
//	defer db.Close()
//
//	p, err := sqlrag.NewPipeline(db, sqlrag.PipelineConfig{LLM: model})
//	result, err := p.Query(ctx, "What is the average balance of management jobs?")
//
// ImportCSV loads a CSV file into a table so the same flow works on
// spreadsheet exports.
package sqlrag
