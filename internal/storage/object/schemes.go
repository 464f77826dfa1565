package object

// Register cloud connectors with afs so s3:// and gs:// URLs resolve.
import (
	_ "github.com/viant/afsc/gs"
	_ "github.com/viant/afsc/s3"
)
