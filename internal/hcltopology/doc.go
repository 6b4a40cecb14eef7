// Package hcltopology loads deployment configurations from HCL files.
//
//	configuration "shop" {
//	  deployment "api" {
//	    manifest = "${path.root}/api.yaml"
//	    requires = ["db"]
//	  }
//	  deployment "db" {
//	    manifest = "db.yaml"
//	  }
//	}
//
// path.root evaluates to the directory given to Load (or the directory of a
// file given directly). The functions format, lower, upper and join are
// available in expressions.
package hcltopology
