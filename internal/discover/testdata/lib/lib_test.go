package main

//export ignored_in_tests
func ignored_in_tests() {}
