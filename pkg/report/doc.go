// Package report turns the dashboard's record collections into downloadable
// analytics reports.
//
// A RecordSet holds four collections: users, devices, reviews and feedback.
// From it the package computes SummaryStats, builds display rows and renders
// one of two documents:
//
//   - a paginated PDF with a title, five summary lines and three tables
//   - a DOCX document produced by filling a Word template
//
// # Quick Start
//
//	rs, err := report.ParseRecordSet(input)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	exporter := report.NewExporter(report.WithTemplateRef("assets/template.docx"))
//	artifact, err := exporter.Export(ctx, "pdf", rs)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	report.DirSaver{Dir: "out"}.Save(ctx, artifact)
//
// # Validation
//
// The two renderers tolerate missing collections differently. RenderPDF
// requires users, devices and feedback and fails with a *ValidationError
// before drawing anything; missing reviews count as none. RenderDOCX treats
// every missing collection as empty.
//
// # Template Syntax
//
// DOCX templates use single braces:
//
//	{totalUsers}                  - Value from the summary
//	{#users}{first_name}{/users}  - Repeat for every user
//	{^reviews}No reviews{/reviews} - Render only when the list is empty
//	{#feedback}{.}{/}             - Current item; {/} closes the innermost section
//
// The summary keys are reportDateTime, totalUsers, totalDevices,
// averageRating and totalFeedback. Records use their wire field names, so a
// user exposes uid, first_name, last_name, email, location, role,
// created_at and dateModified.
//
// A section whose tags sit in different cells of a table repeats whole rows.
// A section whose tags each stand alone in their own paragraph repeats the
// paragraphs between them and drops the marker paragraphs. Newlines in
// values become line breaks. Missing values render empty.
//
// # Errors
//
// Failures are typed: *ValidationError, *TemplateFetchError, *RenderError
// (see RenderErrorKind), *TemplateError and *FormatError. Each has an Is
// helper that follows wrapped errors.
//
// # Configuration
//
// Config is read from REPORT_* environment variables through viper; see
// LoadConfig. Logging goes through a logrus-backed Logger.
package report
