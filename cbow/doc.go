// Package cbow trains the continuous bag-of-words classifier that produces
// word embeddings: a presence-encoded context row is mapped through two
// linear layers to a softmax over the vocabulary, and after training the
// rows of the first layer's weight matrix are the embedding table. Training
// runs full-batch gradient descent under Adam; the classifier itself is the
// scaffolding, the first-layer weights are the product.
package cbow
