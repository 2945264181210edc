// cmd/courtctl/main.go
package main

func main() {
	Execute()
}
