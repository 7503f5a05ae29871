package main

import (
	"fmt"
	"path/filepath"
	"reflect"
	"runtime"
	"testing"
)

// ok fails the test if err is not nil.
func ok(tb testing.TB, err error) {
	if err != nil {
		_, file, line, _ := runtime.Caller(1)
		fmt.Printf("%s:%d: unexpected error: %s\n", filepath.Base(file), line, err.Error())
		tb.FailNow()
	}
}

// equals fails the test if actual is not deeply equal to expected.
func equals(tb testing.TB, actual, expected interface{}) {
	if !reflect.DeepEqual(actual, expected) {
		_, file, line, _ := runtime.Caller(1)
		fmt.Printf("%s:%d: got: %#v, want: %#v\n", filepath.Base(file), line, actual, expected)
		tb.FailNow()
	}
}

// notEquals fails the test if actual is deeply equal to unexpected.
func notEquals(tb testing.TB, actual, unexpected interface{}) {
	if reflect.DeepEqual(actual, unexpected) {
		_, file, line, _ := runtime.Caller(1)
		fmt.Printf("%s:%d: got unwanted value: %#v\n", filepath.Base(file), line, actual)
		tb.FailNow()
	}
}
