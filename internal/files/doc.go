// Package files finds spreadsheets on disk for batch cleaning runs.
//
//	discovery := files.NewDiscovery("/data")
//	inputs, err := discovery.FindSpreadsheets("incoming", []string{".xlsx", ".csv"})
package files
